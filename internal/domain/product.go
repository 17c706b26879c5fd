package domain

import "time"

// Product is a catalog item (milk, curd, paneer ...). Stock applies to
// bottled/packed goods and is decremented when an order is delivered.
type Product struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id,string"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Category  string    `gorm:"size:32" json:"category" form:"category"`
	Size      string    `gorm:"size:32" json:"size" form:"size"`
	Unit      string    `gorm:"size:16" json:"unit" form:"unit"`
	Price     float64   `json:"price" form:"price"`
	Stock     int       `json:"stock" form:"stock"`
	Image     string    `gorm:"size:1024" json:"image" form:"image"`
	Status    string    `gorm:"size:16;index" json:"status" form:"status"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}
