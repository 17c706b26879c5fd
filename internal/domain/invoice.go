package domain

import "time"

const (
	InvoiceDraft = "draft"
	InvoiceSent  = "sent"
	InvoicePaid  = "paid"
)

// Invoice summarizes a customer's delivered orders for one billing
// period. The workbook export path is stored so re-sends don't
// regenerate the file.
type Invoice struct {
	ID          int64         `json:"id,string" form:"id"`
	InvoiceNo   string        `gorm:"uniqueIndex" json:"invoice_no"`
	CustomerId  int64         `gorm:"index" json:"customer_id,string" form:"customer_id"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	OrderCount  int           `json:"order_count"`
	TotalAmount float64       `json:"total_amount"`
	Status      string        `gorm:"size:16;index" json:"status" form:"status"`
	FilePath    string        `json:"file_path"`
	Items       []InvoiceItem `gorm:"foreignKey:InvoiceId" json:"items"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Invoice) TableName() string {
	return "invoice"
}

type InvoiceItem struct {
	ID        int64     `json:"id,string"`
	InvoiceId int64     `gorm:"index" json:"invoice_id,string"`
	OrderId   int64     `json:"order_id,string"`
	OrderNo   string    `json:"order_no"`
	OrderDate time.Time `json:"order_date"`
	Amount    float64   `json:"amount"`
}

func (InvoiceItem) TableName() string {
	return "invoice_item"
}
