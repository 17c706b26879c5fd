package billing

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/milkrunhq/milkrun/config"
)

// SendInvoiceEmail mails an exported invoice workbook to the customer.
// Delivery is best effort; callers run it in a goroutine and the
// failure only gets logged.
func SendInvoiceEmail(cfg config.SmtpConfig, to, invoiceNo, attachment string) error {
	if cfg.Host == "" || to == "" {
		return fmt.Errorf("smtp not configured or recipient empty")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Your invoice %s", invoiceNo))
	m.SetBody("text/plain", fmt.Sprintf(
		"Hello,\n\nPlease find attached your invoice %s for last month's deliveries.\n\nThank you.", invoiceNo))
	if attachment != "" {
		m.Attach(attachment)
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		zap.L().Error("invoice email send failed",
			zap.String("to", to), zap.String("invoice_no", invoiceNo), zap.Error(err))
		return err
	}
	zap.L().Info("invoice email sent", zap.String("to", to), zap.String("invoice_no", invoiceNo))
	return nil
}
