package domain

import "time"

const (
	NotifyPending = "pending"
	NotifySent    = "sent"
	NotifyFailed  = "failed"
)

// Notification is an outbound message (invoice notice, delivery
// update) sent over WhatsApp or email. Sends are fire-and-forget;
// failures only mark the row.
type Notification struct {
	ID         int64     `json:"id,string" form:"id"`
	CustomerId int64     `gorm:"index" json:"customer_id,string" form:"customer_id"`
	Channel    string    `gorm:"size:16" json:"channel" form:"channel"`
	Title      string    `json:"title" form:"title"`
	Body       string    `json:"body" form:"body"`
	Status     string    `gorm:"size:16;index" json:"status"`
	SentAt     time.Time `json:"sent_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Notification) TableName() string {
	return "notification"
}

// OtpCode backs delivery-boy phone login. Codes expire and are
// single-use.
type OtpCode struct {
	ID        int64     `json:"id,string"`
	Phone     string    `gorm:"index" json:"phone"`
	Code      string    `gorm:"size:8" json:"-"`
	Purpose   string    `gorm:"size:32" json:"purpose"`
	ExpireAt  time.Time `json:"expire_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

func (OtpCode) TableName() string {
	return "otp_code"
}
