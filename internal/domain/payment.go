package domain

import "time"

const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// Payment records money received against a customer, optionally tied
// to an invoice. Link payments carry the gateway reference used by the
// webhook callback to find the row.
type Payment struct {
	ID         int64     `json:"id,string" form:"id"`
	CustomerId int64     `gorm:"index" json:"customer_id,string" form:"customer_id"`
	InvoiceId  int64     `gorm:"index" json:"invoice_id,string" form:"invoice_id"`
	Amount     float64   `json:"amount" form:"amount"`
	Method     string    `gorm:"size:16" json:"method" form:"method"`
	Reference  string    `gorm:"uniqueIndex;size:64" json:"reference"`
	LinkUrl    string    `json:"link_url"`
	Status     string    `gorm:"size:16;index" json:"status"`
	Remark     string    `json:"remark" form:"remark"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payment"
}

const (
	BottleIssued   = "issued"
	BottleReturned = "returned"
)

// BottleTransaction is one movement in the glass-bottle deposit
// ledger. The customer's running balance is derived from the ledger,
// with a cached copy on the customer row.
type BottleTransaction struct {
	ID         int64     `json:"id,string" form:"id"`
	CustomerId int64     `gorm:"index" json:"customer_id,string" form:"customer_id"`
	OrderId    int64     `json:"order_id,string" form:"order_id"`
	Type       string    `gorm:"size:16" json:"type" form:"type"`
	Quantity   int       `json:"quantity" form:"quantity"`
	Deposit    float64   `json:"deposit" form:"deposit"`
	Remark     string    `json:"remark" form:"remark"`
	CreatedAt  time.Time `json:"created_at"`
}

func (BottleTransaction) TableName() string {
	return "bottle_transaction"
}
