package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/internal/webserver"
	"github.com/milkrunhq/milkrun/pkg/common"
)

type notificationPayload struct {
	CustomerId int64  `json:"customer_id,string" validate:"required"`
	Channel    string `json:"channel" validate:"required,oneof=whatsapp email"`
	Title      string `json:"title"`
	Body       string `json:"body" validate:"required"`
}

type otpRequestPayload struct {
	Phone   string `json:"phone" validate:"required"`
	Purpose string `json:"purpose"`
}

type otpVerifyPayload struct {
	Phone   string `json:"phone" validate:"required"`
	Code    string `json:"code" validate:"required"`
	Purpose string `json:"purpose"`
}

func registerNotificationRoutes() {
	webserver.ApiGET("/crm/notifications", listNotifications)
	webserver.ApiPOST("/crm/notifications", sendNotification)
	webserver.PubPOST("/auth/otp/request", requestOtp)
	webserver.PubPOST("/auth/otp/verify", verifyOtp)
}

func listNotifications(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Notification{})
	if customerID := c.QueryParam("customer_id"); customerID != "" {
		db = db.Where("customer_id = ?", customerID)
	}
	if status := c.QueryParam("status"); status != "" {
		db = db.Where("status = ?", status)
	}
	if channel := c.QueryParam("channel"); channel != "" {
		db = db.Where("channel = ?", channel)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query notifications", err.Error())
	}
	var rows []domain.Notification
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query notifications", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func sendNotification(c echo.Context) error {
	var payload notificationPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse notification", err.Error())
	}
	if payload.Body == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Body is required", nil)
	}
	if payload.Channel != "whatsapp" && payload.Channel != "email" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Channel must be whatsapp or email", nil)
	}

	var customer domain.Customer
	if err := GetDB(c).First(&customer, payload.CustomerId).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}

	destination := customer.Phone
	if payload.Channel == "email" {
		destination = customer.Email
	}
	if destination == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Customer has no "+payload.Channel+" destination", nil)
	}

	n := domain.Notification{
		ID:         common.UUIDint64(),
		CustomerId: payload.CustomerId,
		Channel:    payload.Channel,
		Title:      payload.Title,
		Body:       payload.Body,
		Status:     domain.NotifyPending,
		CreatedAt:  time.Now(),
	}
	if err := GetDB(c).Create(&n).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to record notification", err.Error())
	}

	go sender.Dispatch(&n, destination)

	return ok(c, n)
}

// requestOtp issues a login code for a delivery boy phone. The
// response never includes the code.
func requestOtp(c echo.Context) error {
	var payload otpRequestPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if payload.Phone == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Phone is required", nil)
	}
	purpose := payload.Purpose
	if purpose == "" {
		purpose = "boy_login"
	}

	var count int64
	GetDB(c).Model(&domain.DeliveryBoy{}).Where("phone = ?", payload.Phone).Count(&count)
	if count == 0 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Phone not registered", nil)
	}

	code := random.String(6, random.Numeric)
	if _, err := sender.SendOtp(payload.Phone, code, purpose, 5*time.Minute); err != nil {
		return fail(c, http.StatusInternalServerError, "SEND_FAILED", "Failed to issue code", err.Error())
	}

	return ok(c, map[string]interface{}{"phone": payload.Phone, "expires_in": 300})
}

func verifyOtp(c echo.Context) error {
	var payload otpVerifyPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	purpose := payload.Purpose
	if purpose == "" {
		purpose = "boy_login"
	}

	if !sender.VerifyOtp(payload.Phone, payload.Code, purpose) {
		return fail(c, http.StatusUnauthorized, "INVALID_CODE", "Code is invalid or expired", nil)
	}

	var boy domain.DeliveryBoy
	if err := GetDB(c).Where("phone = ?", payload.Phone).First(&boy).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Phone not registered", nil)
	}

	cfg := appCtx.Config()
	token, err := issueToken(cfg.Web.Secret, time.Duration(cfg.Web.JwtTTL)*time.Second,
		boy.ID, boy.Name, "boy", "boy")
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_FAILED", "Failed to issue token", err.Error())
	}

	return ok(c, map[string]interface{}{"token": token, "id": boy.ID, "name": boy.Name})
}
