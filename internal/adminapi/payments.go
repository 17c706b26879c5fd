package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/internal/webserver"
	"github.com/milkrunhq/milkrun/pkg/common"
)

type paymentPayload struct {
	CustomerId int64   `json:"customer_id,string" validate:"required"`
	InvoiceId  int64   `json:"invoice_id,string"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Method     string  `json:"method"`
	Remark     string  `json:"remark"`
}

type paymentWebhookPayload struct {
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	Signature string  `json:"signature"`
}

func registerPaymentRoutes() {
	webserver.ApiGET("/billing/payments", listPayments)
	webserver.ApiPOST("/billing/payments", recordPayment)
	webserver.ApiPOST("/billing/payments/link", createPaymentLink)
	webserver.PubPOST("/billing/payments/webhook", paymentWebhook)
}

func listPayments(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Payment{})
	if customerID := c.QueryParam("customer_id"); customerID != "" {
		db = db.Where("customer_id = ?", customerID)
	}
	if status := c.QueryParam("status"); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query payments", err.Error())
	}
	var rows []domain.Payment
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query payments", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

// applyPayment settles a successful payment against the customer's
// dues and, when tied to an invoice, marks the invoice paid.
func applyPayment(tx *gorm.DB, p *domain.Payment) error {
	err := tx.Model(&domain.Customer{}).Where("id = ?", p.CustomerId).Updates(map[string]interface{}{
		"amount_paid": gorm.Expr("amount_paid + ?", p.Amount),
		"amount_due":  gorm.Expr("amount_due - ?", p.Amount),
		"updated_at":  time.Now(),
	}).Error
	if err != nil {
		return err
	}
	if p.InvoiceId != 0 {
		if err := tx.Model(&domain.Invoice{}).Where("id = ?", p.InvoiceId).
			Update("status", domain.InvoicePaid).Error; err != nil {
			return err
		}
	}
	return nil
}

func recordPayment(c echo.Context) error {
	var payload paymentPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse payment", err.Error())
	}
	if payload.CustomerId == 0 || payload.Amount <= 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "customer_id and a positive amount are required", nil)
	}
	var customer domain.Customer
	if err := GetDB(c).First(&customer, payload.CustomerId).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}

	method := strings.ToLower(strings.TrimSpace(payload.Method))
	if method == "" {
		method = "cash"
	}
	p := domain.Payment{
		ID:         common.UUIDint64(),
		CustomerId: payload.CustomerId,
		InvoiceId:  payload.InvoiceId,
		Amount:     payload.Amount,
		Method:     method,
		Reference:  uuid.NewString(),
		Status:     domain.PaymentSuccess,
		Remark:     payload.Remark,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return applyPayment(tx, &p)
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record payment", err.Error())
	}
	logAction(c, "record_payment", p.Reference)
	return ok(c, p)
}

// createPaymentLink asks the gateway for a hosted payment page and
// stores a pending payment carrying the reference the webhook will
// echo back.
func createPaymentLink(c echo.Context) error {
	var payload paymentPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse payment", err.Error())
	}
	if payload.CustomerId == 0 || payload.Amount <= 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "customer_id and a positive amount are required", nil)
	}
	var customer domain.Customer
	if err := GetDB(c).First(&customer, payload.CustomerId).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}

	reference := uuid.NewString()
	url, err := payClient.CreatePaymentLink(reference, payload.Amount, customer.Name, customer.Phone)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "GATEWAY_ERROR", "Failed to create payment link", err.Error())
	}

	p := domain.Payment{
		ID:         common.UUIDint64(),
		CustomerId: payload.CustomerId,
		InvoiceId:  payload.InvoiceId,
		Amount:     payload.Amount,
		Method:     "link",
		Reference:  reference,
		LinkUrl:    url,
		Status:     domain.PaymentPending,
		Remark:     payload.Remark,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to store payment", err.Error())
	}
	return ok(c, map[string]interface{}{"payment": p, "url": url})
}

// paymentWebhook is the gateway callback. Unauthenticated route; the
// HMAC signature is the authentication.
func paymentWebhook(c echo.Context) error {
	var payload paymentWebhookPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse webhook", err.Error())
	}
	if !payClient.VerifySignature(payload.Reference, payload.Amount, payload.Signature) {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Bad signature", nil)
	}

	var p domain.Payment
	if err := GetDB(c).Where("reference = ?", payload.Reference).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Unknown payment reference", nil)
	}
	if p.Status != domain.PaymentPending {
		// duplicate callback, already settled
		return ok(c, p)
	}

	status := domain.PaymentFailed
	if strings.EqualFold(payload.Status, "success") || strings.EqualFold(payload.Status, "paid") {
		status = domain.PaymentSuccess
	}

	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Payment{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return err
		}
		if status != domain.PaymentSuccess {
			return nil
		}
		return applyPayment(tx, &p)
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to settle payment", err.Error())
	}
	p.Status = status
	return ok(c, p)
}
