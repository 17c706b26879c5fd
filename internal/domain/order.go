package domain

import "time"

// Order status transitions: scheduled -> out_for_delivery ->
// delivered | failed | cancelled. Materialization never touches an
// order after creation; only the status handlers do.
const (
	OrderScheduled      = "scheduled"
	OrderOutForDelivery = "out_for_delivery"
	OrderDelivered      = "delivered"
	OrderFailed         = "failed"
	OrderCancelled      = "cancelled"
)

const (
	PayUnpaid = "unpaid"
	PayPaid   = "paid"
)

// Order is an immutable snapshot of the eligible product lines of one
// customer for one delivery date. Prices and names are denormalized at
// generation time so later catalog edits don't rewrite history.
type Order struct {
	ID            int64       `json:"id,string" form:"id"`
	OrderNo       string      `gorm:"uniqueIndex" json:"order_no"`
	CustomerId    int64       `gorm:"index" json:"customer_id,string" form:"customer_id"`
	DeliveryBoyId int64       `gorm:"index" json:"delivery_boy_id,string" form:"delivery_boy_id"`
	DeliveryDate  time.Time   `gorm:"index" json:"delivery_date"`
	Status        string      `gorm:"size:32;index" json:"status" form:"status"`
	PaymentStatus string      `gorm:"size:16" json:"payment_status" form:"payment_status"`
	TotalAmount   float64     `json:"total_amount"`
	Items         []OrderItem `gorm:"foreignKey:OrderId" json:"items"`
	Remark        string      `json:"remark" form:"remark"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (Order) TableName() string {
	return "delivery_order"
}

type OrderItem struct {
	ID          int64   `json:"id,string"`
	OrderId     int64   `gorm:"index" json:"order_id,string"`
	ProductId   int64   `json:"product_id,string"`
	ProductName string  `json:"product_name"`
	Size        string  `json:"size"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	TotalPrice  float64 `json:"total_price"`
}

func (OrderItem) TableName() string {
	return "delivery_order_item"
}

// OrderSequence is the per-day atomic counter behind order numbers.
// Incremented inside the order-creation transaction so concurrent
// creators never observe the same value.
type OrderSequence struct {
	Day string `gorm:"primaryKey;size:8" json:"day"`
	Seq int64  `json:"seq"`
}

func (OrderSequence) TableName() string {
	return "order_sequence"
}
