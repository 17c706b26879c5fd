package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/milkrunhq/milkrun/internal/app"
	"github.com/milkrunhq/milkrun/internal/delivery"
	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/internal/webserver"
	"github.com/milkrunhq/milkrun/pkg/common"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
)

type customerLinePayload struct {
	ProductId    int64   `json:"product_id,string"`
	Size         string  `json:"size"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	DeliveryDays string  `json:"delivery_days"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
}

type customerPayload struct {
	Name                string                `json:"name" validate:"required,min=1,max=200"`
	Phone               string                `json:"phone" validate:"required"`
	Email               string                `json:"email"`
	Address             string                `json:"address"`
	SubscriptionPlan    string                `json:"subscription_plan"`
	StartDate           string                `json:"start_date"`
	EndDate             string                `json:"end_date"`
	CustomDeliveryDates []string              `json:"custom_delivery_dates"`
	DeliveryBoyId       int64                 `json:"delivery_boy_id,string"`
	PaymentMethod       string                `json:"payment_method"`
	Lines               []customerLinePayload `json:"lines"`
	Remark              string                `json:"remark"`
}

type absencePayload struct {
	Date string `json:"date" validate:"required"`
}

func registerCustomerRoutes() {
	webserver.ApiGET("/crm/customers", listCustomers)
	webserver.ApiGET("/crm/customers/:id", getCustomer)
	webserver.ApiPOST("/crm/customers", createCustomer)
	webserver.ApiPUT("/crm/customers/:id", updateCustomer)
	webserver.ApiDELETE("/crm/customers/:id", deleteCustomer)
	webserver.ApiPOST("/crm/customers/:id/products", addCustomerProduct)
	webserver.ApiPUT("/crm/customers/:id/products/:lineId", updateCustomerProduct)
	webserver.ApiDELETE("/crm/customers/:id/products/:lineId", removeCustomerProduct)
	webserver.ApiPOST("/crm/customers/:id/absences", addAbsentDay)
	webserver.ApiDELETE("/crm/customers/:id/absences", removeAbsentDay)
	webserver.ApiPOST("/crm/customers/:id/generate", generateCustomerOrder)
}

// validateCustomerDates enforces the window and custom-plan invariants
// shared by create and update.
func validateCustomerDates(plan, startDate, endDate string, customDates []string) (start, end time.Time, code string) {
	start, okStart := dateutil.ParseString(startDate)
	if !okStart {
		return start, end, "Invalid start_date"
	}
	end, okEnd := dateutil.ParseString(endDate)
	if !okEnd {
		return start, end, "Invalid end_date"
	}
	if end.Before(start) {
		return start, end, "end_date must not be before start_date"
	}
	if plan == domain.PlanCustomDate && len(customDates) == 0 {
		return start, end, "custom_delivery_dates required for custom date plan"
	}
	for _, d := range customDates {
		if _, ok := dateutil.ParseString(d); !ok {
			return start, end, "Invalid custom delivery date: " + d
		}
	}
	return start, end, ""
}

func normalizePlan(plan string) string {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(plan, " ", "_"))) {
	case "monthly":
		return domain.PlanMonthly
	case "alternate_days":
		return domain.PlanAlternateDays
	case "custom_date", "custom":
		return domain.PlanCustomDate
	default:
		return ""
	}
}

func listCustomers(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Customer{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		db = db.Where("LOWER(name) LIKE ? OR phone LIKE ?", "%"+strings.ToLower(q)+"%", "%"+q+"%")
	}
	if status := c.QueryParam("status"); status != "" {
		db = db.Where("subscription_status = ?", status)
	}
	if boyID := c.QueryParam("delivery_boy_id"); boyID != "" {
		db = db.Where("delivery_boy_id = ?", boyID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customers", err.Error())
	}
	var rows []domain.Customer
	if err := db.Preload("Lines").Preload("Lines.Product").
		Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customers", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getCustomer(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	customer, err := delivery.LoadCustomer(GetDB(c), id)
	if err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}
	return ok(c, customer)
}

func createCustomer(c echo.Context) error {
	var payload customerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse customer", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Phone = strings.TrimSpace(payload.Phone)
	if payload.Name == "" || payload.Phone == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name and phone are required", nil)
	}
	plan := normalizePlan(payload.SubscriptionPlan)
	if plan == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST",
			"subscription_plan must be monthly, alternate_days or custom_date", nil)
	}
	start, end, msg := validateCustomerDates(plan, payload.StartDate, payload.EndDate, payload.CustomDeliveryDates)
	if msg != "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
	}
	for _, line := range payload.Lines {
		if line.Quantity < 1 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Line quantity must be >= 1", nil)
		}
	}

	var existing domain.Customer
	err := GetDB(c).Where("phone = ?", payload.Phone).First(&existing).Error
	if err == nil {
		return fail(c, http.StatusConflict, "CONFLICT", "A customer with this phone already exists", nil)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check phone", err.Error())
	}

	customer := domain.Customer{
		ID:                  common.UUIDint64(),
		Name:                payload.Name,
		Phone:               payload.Phone,
		Email:               strings.TrimSpace(payload.Email),
		Address:             strings.TrimSpace(payload.Address),
		SubscriptionPlan:    plan,
		SubscriptionStatus:  domain.SubscriptionActive,
		StartDate:           start,
		EndDate:             end,
		CustomDeliveryDates: payload.CustomDeliveryDates,
		DeliveryBoyId:       payload.DeliveryBoyId,
		PaymentMethod:       payload.PaymentMethod,
		PaymentStatus:       domain.PayUnpaid,
		Remark:              payload.Remark,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}

	err = GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}
		for _, line := range payload.Lines {
			row, err := buildLine(tx, customer.ID, line, start, end)
			if err != nil {
				return err
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create customer", err.Error())
	}
	logAction(c, "create_customer", customer.Phone)

	// First order on the subscription start date, when enabled.
	var firstOrder *domain.Order
	if appCtx.GetSettingsBoolValue(app.SettingsDelivery, "auto_first_order") && len(payload.Lines) > 0 {
		loaded, err := delivery.LoadCustomer(GetDB(c), customer.ID)
		if err == nil {
			firstOrder, err = delivery.CreateAutomaticOrder(GetDB(c), loaded, start)
			if err != nil && !errors.Is(err, delivery.ErrNothingDue) {
				return fail(c, http.StatusInternalServerError, "DATABASE_ERROR",
					"Customer created but first order failed", err.Error())
			}
		}
	}

	return ok(c, map[string]interface{}{"customer": customer, "first_order": firstOrder})
}

// buildLine resolves the product reference and fills derived fields.
// Line dates default to the customer's window.
func buildLine(tx *gorm.DB, customerID int64, payload customerLinePayload, defStart, defEnd time.Time) (*domain.CustomerProduct, error) {
	var product domain.Product
	if err := tx.First(&product, payload.ProductId).Error; err != nil {
		return nil, err
	}
	price := payload.Price
	if price <= 0 {
		price = product.Price
	}
	start := defStart
	if s, ok := dateutil.ParseString(payload.StartDate); ok {
		start = s
	}
	end := defEnd
	if e, ok := dateutil.ParseString(payload.EndDate); ok {
		end = e
	}
	return &domain.CustomerProduct{
		ID:           common.UUIDint64(),
		CustomerId:   customerID,
		ProductId:    product.ID,
		Size:         payload.Size,
		Quantity:     payload.Quantity,
		Price:        price,
		TotalPrice:   float64(payload.Quantity) * price,
		DeliveryDays: payload.DeliveryDays,
		StartDate:    start,
		EndDate:      end,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}, nil
}

func updateCustomer(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	var customer domain.Customer
	if err := GetDB(c).First(&customer, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}

	var payload customerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse customer", err.Error())
	}
	if payload.Name != "" {
		customer.Name = strings.TrimSpace(payload.Name)
	}
	if payload.Email != "" {
		customer.Email = strings.TrimSpace(payload.Email)
	}
	if payload.Address != "" {
		customer.Address = strings.TrimSpace(payload.Address)
	}
	if payload.SubscriptionPlan != "" {
		plan := normalizePlan(payload.SubscriptionPlan)
		if plan == "" {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid subscription_plan", nil)
		}
		customer.SubscriptionPlan = plan
	}
	if payload.StartDate != "" || payload.EndDate != "" {
		startStr, endStr := payload.StartDate, payload.EndDate
		if startStr == "" {
			startStr = dateutil.Format(customer.StartDate)
		}
		if endStr == "" {
			endStr = dateutil.Format(customer.EndDate)
		}
		start, end, msg := validateCustomerDates(customer.SubscriptionPlan, startStr, endStr, payload.CustomDeliveryDates)
		if msg != "" {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
		}
		customer.StartDate, customer.EndDate = start, end
	}
	if payload.CustomDeliveryDates != nil {
		customer.CustomDeliveryDates = payload.CustomDeliveryDates
	}
	if payload.DeliveryBoyId != 0 {
		customer.DeliveryBoyId = payload.DeliveryBoyId
	}
	if payload.PaymentMethod != "" {
		customer.PaymentMethod = payload.PaymentMethod
	}
	if status := c.QueryParam("subscription_status"); status == domain.SubscriptionActive || status == domain.SubscriptionInactive {
		customer.SubscriptionStatus = status
	}
	customer.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&customer).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update customer", err.Error())
	}
	logAction(c, "update_customer", customer.Phone)
	return ok(c, customer)
}

func deleteCustomer(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	// soft delete: the row stays for invoice and ledger history
	if err := GetDB(c).Delete(&domain.Customer{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete customer", err.Error())
	}
	logAction(c, "delete_customer", c.Param("id"))
	return ok(c, map[string]interface{}{"id": id})
}

func addCustomerProduct(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	var customer domain.Customer
	if err := GetDB(c).First(&customer, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}

	var payload customerLinePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product line", err.Error())
	}
	if payload.Quantity < 1 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Quantity must be >= 1", nil)
	}
	if delivery.ParseCadence(payload.DeliveryDays) == delivery.CadenceUnknown {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid delivery_days", nil)
	}

	row, err := buildLine(GetDB(c), customer.ID, payload, customer.StartDate, customer.EndDate)
	if err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if err := GetDB(c).Create(row).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to add product line", err.Error())
	}
	return ok(c, row)
}

func updateCustomerProduct(c echo.Context) error {
	lineID, okID := paramInt64(c, "lineId")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid line ID", nil)
	}
	var line domain.CustomerProduct
	if err := GetDB(c).First(&line, lineID).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product line not found", nil)
	}

	var payload customerLinePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product line", err.Error())
	}
	if payload.Quantity >= 1 {
		line.Quantity = payload.Quantity
	}
	if payload.Price > 0 {
		line.Price = payload.Price
	}
	if payload.Size != "" {
		line.Size = payload.Size
	}
	if payload.DeliveryDays != "" {
		if delivery.ParseCadence(payload.DeliveryDays) == delivery.CadenceUnknown {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid delivery_days", nil)
		}
		line.DeliveryDays = payload.DeliveryDays
	}
	if s, ok := dateutil.ParseString(payload.StartDate); ok {
		line.StartDate = s
	}
	if e, ok := dateutil.ParseString(payload.EndDate); ok {
		line.EndDate = e
	}
	if line.EndDate.Before(line.StartDate) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "end_date must not be before start_date", nil)
	}
	line.TotalPrice = float64(line.Quantity) * line.Price
	line.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&line).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product line", err.Error())
	}
	return ok(c, line)
}

func removeCustomerProduct(c echo.Context) error {
	lineID, okID := paramInt64(c, "lineId")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid line ID", nil)
	}
	if err := GetDB(c).Delete(&domain.CustomerProduct{}, lineID).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to remove product line", err.Error())
	}
	return ok(c, map[string]interface{}{"id": lineID})
}

func addAbsentDay(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	var customer domain.Customer
	if err := GetDB(c).First(&customer, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}

	var payload absencePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse absence", err.Error())
	}
	day, okDay := dateutil.ParseString(payload.Date)
	if !okDay {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid date", nil)
	}
	formatted := dateutil.Format(day)
	for _, existing := range customer.AbsentDays {
		if existing == formatted {
			return ok(c, customer)
		}
	}
	customer.AbsentDays = append(customer.AbsentDays, formatted)
	customer.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&customer).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record absence", err.Error())
	}
	return ok(c, customer)
}

func removeAbsentDay(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	var customer domain.Customer
	if err := GetDB(c).First(&customer, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}

	var payload absencePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse absence", err.Error())
	}
	day, okDay := dateutil.ParseString(payload.Date)
	if !okDay {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid date", nil)
	}
	formatted := dateutil.Format(day)
	kept := customer.AbsentDays[:0]
	for _, existing := range customer.AbsentDays {
		if existing != formatted {
			kept = append(kept, existing)
		}
	}
	customer.AbsentDays = kept
	customer.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&customer).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to remove absence", err.Error())
	}
	return ok(c, customer)
}

// generateCustomerOrder manually materializes one customer's order for
// a date, the same path the scheduler batch takes.
func generateCustomerOrder(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	var payload absencePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	target := time.Now()
	if payload.Date != "" {
		day, okDay := dateutil.ParseString(payload.Date)
		if !okDay {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid date", nil)
		}
		target = day
	}

	customer, err := delivery.LoadCustomer(GetDB(c), id)
	if err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}
	order, err := delivery.CreateAutomaticOrder(GetDB(c), customer, target)
	if errors.Is(err, delivery.ErrNothingDue) {
		return ok(c, map[string]interface{}{"order": nil, "message": "nothing due on this date"})
	}
	if errors.Is(err, delivery.ErrOrderExists) {
		return fail(c, http.StatusConflict, "ORDER_EXISTS", "An order already exists for this date", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create order", err.Error())
	}
	logAction(c, "generate_order", order.OrderNo)
	return ok(c, map[string]interface{}{"order": order})
}
