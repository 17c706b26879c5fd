package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/guonaihong/gout"
	"go.uber.org/zap"

	"github.com/milkrunhq/milkrun/config"
)

// Client talks to the hosted payment page provider.
type Client struct {
	cfg config.GatewayConfig
}

func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{cfg: cfg}
}

type linkRequest struct {
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Customer  string  `json:"customer"`
	Phone     string  `json:"phone"`
}

type linkResponse struct {
	Success bool   `json:"success"`
	Url     string `json:"url"`
	Message string `json:"message"`
}

// CreatePaymentLink requests a hosted payment page for the given
// amount and returns its URL.
func (c *Client) CreatePaymentLink(reference string, amount float64, customerName, phone string) (string, error) {
	if c.cfg.PaymentApiUrl == "" {
		return "", fmt.Errorf("payment gateway not configured")
	}
	var resp linkResponse
	err := gout.POST(c.cfg.PaymentApiUrl + "/v1/links").
		SetHeader(gout.H{"Authorization": "Bearer " + c.cfg.PaymentApiKey}).
		SetJSON(linkRequest{
			Reference: reference,
			Amount:    amount,
			Currency:  "INR",
			Customer:  customerName,
			Phone:     phone,
		}).
		SetTimeout(10 * time.Second).
		BindJSON(&resp).
		Do()
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("gateway refused link: %s", resp.Message)
	}
	zap.L().Info("payment link created", zap.String("reference", reference), zap.Float64("amount", amount))
	return resp.Url, nil
}

// Signature computes the webhook signature for a callback body:
// hex(hmac-sha256(reference + amount, apiKey)).
func (c *Client) Signature(reference string, amount float64) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.PaymentApiKey))
	fmt.Fprintf(mac, "%s%.2f", reference, amount)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook callback's signature in constant
// time.
func (c *Client) VerifySignature(reference string, amount float64, signature string) bool {
	want := c.Signature(reference, amount)
	return hmac.Equal([]byte(want), []byte(signature))
}
