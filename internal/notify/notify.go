package notify

import (
	"fmt"
	"time"

	"github.com/guonaihong/gout"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/milkrunhq/milkrun/config"
	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/common"
)

// Sender pushes outbound messages through the WhatsApp HTTP gateway
// and SMTP. All sends are fire-and-forget from the caller's point of
// view: a failure marks the notification row and is logged, nothing
// more.
type Sender struct {
	cfg *config.AppConfig
	db  *gorm.DB
}

func NewSender(cfg *config.AppConfig, db *gorm.DB) *Sender {
	return &Sender{cfg: cfg, db: db}
}

type waMessage struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (s *Sender) sendWhatsApp(phone, message string) error {
	if s.cfg.Gateway.WhatsappApiUrl == "" {
		return fmt.Errorf("whatsapp gateway not configured")
	}
	var code int
	err := gout.POST(s.cfg.Gateway.WhatsappApiUrl + "/v1/messages").
		SetHeader(gout.H{"Authorization": "Bearer " + s.cfg.Gateway.WhatsappApiKey}).
		SetJSON(waMessage{Phone: phone, Message: message}).
		SetTimeout(10 * time.Second).
		Code(&code).
		Do()
	if err != nil {
		return err
	}
	if code >= 300 {
		return fmt.Errorf("whatsapp gateway status %d", code)
	}
	return nil
}

func (s *Sender) sendEmail(to, subject, body string) error {
	if s.cfg.Smtp.Host == "" {
		return fmt.Errorf("smtp not configured")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.Smtp.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	d := gomail.NewDialer(s.cfg.Smtp.Host, s.cfg.Smtp.Port, s.cfg.Smtp.Username, s.cfg.Smtp.Password)
	return d.DialAndSend(m)
}

// Dispatch sends a stored notification on its channel and updates its
// status. Safe to call from a goroutine.
func (s *Sender) Dispatch(n *domain.Notification, destination string) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Error("notification dispatch panic: ", r)
		}
	}()

	var err error
	switch n.Channel {
	case "whatsapp":
		err = s.sendWhatsApp(destination, n.Body)
	case "email":
		err = s.sendEmail(destination, n.Title, n.Body)
	default:
		err = fmt.Errorf("unknown channel %s", n.Channel)
	}

	status := domain.NotifySent
	if err != nil {
		status = domain.NotifyFailed
		zap.L().Error("notification send failed",
			zap.Int64("notification_id", n.ID), zap.String("channel", n.Channel), zap.Error(err))
	}
	s.db.Model(&domain.Notification{}).Where("id = ?", n.ID).Updates(map[string]interface{}{
		"status":     status,
		"sent_at":    time.Now(),
		"updated_at": time.Now(),
	})
}

// SendOtp stores and sends a one-time code over WhatsApp. Returns the
// persisted row so callers can surface the expiry.
func (s *Sender) SendOtp(phone, code, purpose string, ttl time.Duration) (*domain.OtpCode, error) {
	otp := &domain.OtpCode{
		ID:        common.UUIDint64(),
		Phone:     phone,
		Code:      code,
		Purpose:   purpose,
		ExpireAt:  time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(otp).Error; err != nil {
		return nil, err
	}
	go func() {
		if err := s.sendWhatsApp(phone, fmt.Sprintf("Your verification code is %s", code)); err != nil {
			zap.L().Error("otp send failed", zap.String("phone", phone), zap.Error(err))
		}
	}()
	return otp, nil
}

// VerifyOtp consumes a code. A code can be used once and only before
// expiry.
func (s *Sender) VerifyOtp(phone, code, purpose string) bool {
	var otp domain.OtpCode
	err := s.db.Where("phone = ? and code = ? and purpose = ? and used = ?", phone, code, purpose, false).
		Order("created_at desc").First(&otp).Error
	if err != nil {
		return false
	}
	if time.Now().After(otp.ExpireAt) {
		return false
	}
	s.db.Model(&domain.OtpCode{}).Where("id = ?", otp.ID).Update("used", true)
	return true
}
