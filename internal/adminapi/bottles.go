package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/milkrunhq/milkrun/internal/app"
	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/internal/webserver"
	"github.com/milkrunhq/milkrun/pkg/common"
)

type bottlePayload struct {
	CustomerId int64   `json:"customer_id,string" validate:"required"`
	OrderId    int64   `json:"order_id,string"`
	Type       string  `json:"type" validate:"required,oneof=issued returned"`
	Quantity   int     `json:"quantity" validate:"required,min=1"`
	Deposit    float64 `json:"deposit"`
	Remark     string  `json:"remark"`
}

func registerBottleRoutes() {
	webserver.ApiGET("/crm/bottles", listBottleTransactions)
	webserver.ApiPOST("/crm/bottles", createBottleTransaction)
	webserver.ApiGET("/crm/bottles/balance/:customerId", bottleBalance)
}

func listBottleTransactions(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.BottleTransaction{})
	if customerID := c.QueryParam("customer_id"); customerID != "" {
		db = db.Where("customer_id = ?", customerID)
	}
	if typ := c.QueryParam("type"); typ != "" {
		db = db.Where("type = ?", typ)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query bottle ledger", err.Error())
	}
	var rows []domain.BottleTransaction
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query bottle ledger", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func createBottleTransaction(c echo.Context) error {
	var payload bottlePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse transaction", err.Error())
	}
	if payload.Type != domain.BottleIssued && payload.Type != domain.BottleReturned {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Type must be issued or returned", nil)
	}
	if payload.Quantity < 1 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Quantity must be >= 1", nil)
	}

	var customer domain.Customer
	if err := GetDB(c).First(&customer, payload.CustomerId).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}
	if payload.Type == domain.BottleReturned && customer.BottleBalance < payload.Quantity {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Customer does not hold that many bottles", nil)
	}

	deposit := payload.Deposit
	if deposit == 0 {
		deposit = float64(appCtx.GetSettingsInt64Value(app.SettingsDelivery, "bottle_deposit")) * float64(payload.Quantity)
	}

	txn := domain.BottleTransaction{
		ID:         common.UUIDint64(),
		CustomerId: payload.CustomerId,
		OrderId:    payload.OrderId,
		Type:       payload.Type,
		Quantity:   payload.Quantity,
		Deposit:    deposit,
		Remark:     payload.Remark,
		CreatedAt:  time.Now(),
	}
	delta := payload.Quantity
	if payload.Type == domain.BottleReturned {
		delta = -payload.Quantity
	}

	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Customer{}).Where("id = ?", payload.CustomerId).
			Update("bottle_balance", gorm.Expr("bottle_balance + ?", delta)).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record transaction", err.Error())
	}
	return ok(c, txn)
}

// bottleBalance returns the cached balance plus the ledger-derived one
// so discrepancies are visible.
func bottleBalance(c echo.Context) error {
	customerID, okID := paramInt64(c, "customerId")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	var customer domain.Customer
	if err := GetDB(c).First(&customer, customerID).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}

	type sums struct {
		Issued   int
		Returned int
	}
	var s sums
	GetDB(c).Model(&domain.BottleTransaction{}).
		Select("COALESCE(SUM(CASE WHEN type = 'issued' THEN quantity ELSE 0 END),0) as issued, "+
			"COALESCE(SUM(CASE WHEN type = 'returned' THEN quantity ELSE 0 END),0) as returned").
		Where("customer_id = ?", customerID).Scan(&s)

	return ok(c, map[string]interface{}{
		"customer_id":    customerID,
		"cached_balance": customer.BottleBalance,
		"ledger_balance": s.Issued - s.Returned,
		"issued":         s.Issued,
		"returned":       s.Returned,
	})
}
