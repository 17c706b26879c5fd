package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/milkrunhq/milkrun/internal/app"
	"github.com/milkrunhq/milkrun/internal/billing"
	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/internal/webserver"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
)

type generateInvoicesPayload struct {
	RunDate string `json:"run_date"`
}

func registerInvoiceRoutes() {
	webserver.ApiGET("/billing/invoices", listInvoices)
	webserver.ApiGET("/billing/invoices/:id", getInvoice)
	webserver.ApiPOST("/billing/invoices/generate", generateInvoices)
	webserver.ApiPOST("/billing/invoices/:id/export", exportInvoice)
	webserver.ApiPOST("/billing/invoices/:id/send", sendInvoice)
}

func listInvoices(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Invoice{})
	if customerID := c.QueryParam("customer_id"); customerID != "" {
		db = db.Where("customer_id = ?", customerID)
	}
	if status := c.QueryParam("status"); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query invoices", err.Error())
	}
	var rows []domain.Invoice
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query invoices", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getInvoice(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid invoice ID", nil)
	}
	var inv domain.Invoice
	if err := GetDB(c).Preload("Items").First(&inv, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Invoice not found", nil)
	}
	return ok(c, inv)
}

// generateInvoices runs the monthly batch on demand (the scheduler
// normally does this on the first of the month).
func generateInvoices(c echo.Context) error {
	var payload generateInvoicesPayload
	_ = c.Bind(&payload)

	runDate := time.Now()
	if payload.RunDate != "" {
		day, okDay := dateutil.ParseString(payload.RunDate)
		if !okDay {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid run_date", nil)
		}
		runDate = day
	}

	prefix := appCtx.GetSettingsStringValue(app.SettingsBilling, "invoice_prefix")
	count, err := billing.GenerateMonthlyInvoices(GetDB(c), prefix, runDate)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Invoice generation failed", err.Error())
	}
	logAction(c, "generate_invoices", dateutil.Format(runDate))
	return ok(c, map[string]interface{}{"created": count})
}

func exportInvoice(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid invoice ID", nil)
	}
	path, err := billing.ExportInvoiceXlsx(GetDB(c), id, appCtx.Config().System.Workdir)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export invoice", err.Error())
	}
	return ok(c, map[string]interface{}{"file_path": path})
}

// sendInvoice emails the workbook to the customer, exporting first if
// needed. The send itself is fire-and-forget.
func sendInvoice(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid invoice ID", nil)
	}
	var inv domain.Invoice
	if err := GetDB(c).First(&inv, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Invoice not found", nil)
	}
	var customer domain.Customer
	if err := GetDB(c).First(&customer, inv.CustomerId).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}
	if customer.Email == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Customer has no email address", nil)
	}

	path := inv.FilePath
	if path == "" {
		var err error
		path, err = billing.ExportInvoiceXlsx(GetDB(c), id, appCtx.Config().System.Workdir)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export invoice", err.Error())
		}
	}

	db := GetDB(c)
	cfg := appCtx.Config().Smtp
	go func() {
		if err := billing.SendInvoiceEmail(cfg, customer.Email, inv.InvoiceNo, path); err == nil {
			db.Model(&domain.Invoice{}).Where("id = ?", inv.ID).Update("status", domain.InvoiceSent)
		}
	}()
	return ok(c, map[string]interface{}{"queued": true})
}
