package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Subscription plan values stored on Customer.SubscriptionPlan.
const (
	PlanMonthly       = "monthly"
	PlanAlternateDays = "alternate_days"
	PlanCustomDate    = "custom_date"
)

const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
)

// Customer is a subscriber household. Product lines, absence days and
// custom delivery dates are owned by the customer record; orders only
// reference it by id.
type Customer struct {
	ID                  int64                      `json:"id,string" form:"id"`
	Name                string                     `gorm:"index" json:"name" form:"name"`
	Phone               string                     `gorm:"uniqueIndex" json:"phone" form:"phone"`
	Email               string                     `json:"email" form:"email"`
	Address             string                     `json:"address" form:"address"`
	SubscriptionPlan    string                     `gorm:"index" json:"subscription_plan" form:"subscription_plan"`
	SubscriptionStatus  string                     `gorm:"index" json:"subscription_status" form:"subscription_status"`
	StartDate           time.Time                  `json:"start_date"`
	EndDate             time.Time                  `json:"end_date"`
	CustomDeliveryDates datatypes.JSONSlice[string] `json:"custom_delivery_dates"`
	AbsentDays          datatypes.JSONSlice[string] `json:"absent_days"`
	DeliveryBoyId       int64                      `gorm:"index" json:"delivery_boy_id,string" form:"delivery_boy_id"`
	Lines               []CustomerProduct          `gorm:"foreignKey:CustomerId" json:"lines"`
	AmountPaid          float64                    `json:"amount_paid"`
	AmountDue           float64                    `json:"amount_due"`
	PaymentMethod       string                     `json:"payment_method" form:"payment_method"`
	PaymentStatus       string                     `json:"payment_status" form:"payment_status"`
	BottleBalance       int                        `json:"bottle_balance"`
	Remark              string                     `json:"remark" form:"remark"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
	DeletedAt           gorm.DeletedAt             `gorm:"index" json:"-"`
}

func (Customer) TableName() string {
	return "customer"
}

// CustomerProduct is one standing subscription line: a product at a
// size/quantity with its own delivery cadence and validity window.
type CustomerProduct struct {
	ID           int64      `json:"id,string" form:"id"`
	CustomerId   int64      `gorm:"index" json:"customer_id,string" form:"customer_id"`
	ProductId    int64      `gorm:"index" json:"product_id,string" form:"product_id"`
	Product      *Product   `gorm:"foreignKey:ProductId" json:"product,omitempty"`
	Size         string     `json:"size" form:"size"`
	Quantity     int        `json:"quantity" form:"quantity"`
	Price        float64    `json:"price" form:"price"`
	TotalPrice   float64    `json:"total_price"`
	DeliveryDays string     `json:"delivery_days" form:"delivery_days"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (CustomerProduct) TableName() string {
	return "customer_product"
}
