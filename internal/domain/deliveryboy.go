package domain

import "time"

// DeliveryBoy is the second principal type besides the admin operator.
// It logs in with phone + password and only sees its own route.
type DeliveryBoy struct {
	ID        int64     `json:"id,string" form:"id"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Phone     string    `gorm:"uniqueIndex" json:"phone" form:"phone"`
	Email     string    `json:"email" form:"email"`
	Password  string    `json:"-" form:"password"`
	Area      string    `json:"area" form:"area"`
	Status    string    `gorm:"size:16;index" json:"status" form:"status"`
	LastLogin time.Time `json:"last_login"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DeliveryBoy) TableName() string {
	return "delivery_boy"
}
