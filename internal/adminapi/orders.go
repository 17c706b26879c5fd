package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/milkrunhq/milkrun/internal/app"
	"github.com/milkrunhq/milkrun/internal/delivery"
	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/internal/webserver"
	"github.com/milkrunhq/milkrun/pkg/common"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
)

type customOrderPayload struct {
	CustomerId    int64                `json:"customer_id,string" validate:"required"`
	DeliveryBoyId int64                `json:"delivery_boy_id,string"`
	Date          string               `json:"date"`
	Items         []delivery.ItemInput `json:"items" validate:"required,min=1"`
	Remark        string               `json:"remark"`
}

type orderStatusPayload struct {
	Status  string `json:"status" validate:"required"`
	Bottles int    `json:"bottles"`
	Remark  string `json:"remark"`
}

// orderCsvRow is the flattened export shape.
type orderCsvRow struct {
	OrderNo      string  `csv:"order_no"`
	DeliveryDate string  `csv:"delivery_date"`
	Customer     string  `csv:"customer"`
	Phone        string  `csv:"phone"`
	Status       string  `csv:"status"`
	Payment      string  `csv:"payment_status"`
	Total        float64 `csv:"total_amount"`
}

func registerOrderRoutes() {
	webserver.ApiGET("/crm/orders", listOrders)
	webserver.ApiGET("/crm/orders/:id", getOrder)
	webserver.ApiPOST("/crm/orders/custom", createCustomOrder)
	webserver.ApiPUT("/crm/orders/:id/status", updateOrderStatus)
	webserver.ApiGET("/crm/orders/export", exportOrdersCsv)
}

func orderListQuery(c echo.Context) *gorm.DB {
	db := GetDB(c).Model(&domain.Order{})
	if d := c.QueryParam("date"); d != "" {
		if day, okDay := dateutil.ParseString(d); okDay {
			db = db.Where("delivery_date = ?", day)
		}
	}
	if status := c.QueryParam("status"); status != "" {
		db = db.Where("status = ?", status)
	}
	if boyID := c.QueryParam("delivery_boy_id"); boyID != "" {
		db = db.Where("delivery_boy_id = ?", boyID)
	}
	if customerID := c.QueryParam("customer_id"); customerID != "" {
		db = db.Where("customer_id = ?", customerID)
	}
	return db
}

func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := orderListQuery(c)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	var rows []domain.Order
	if err := db.Preload("Items").Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getOrder(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var order domain.Order
	if err := GetDB(c).Preload("Items").First(&order, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	return ok(c, order)
}

// createCustomOrder is the one-off order path: caller-supplied items,
// same aggregation rule and numbering as automatic orders.
func createCustomOrder(c echo.Context) error {
	var payload customOrderPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse order", err.Error())
	}
	if payload.CustomerId == 0 || len(payload.Items) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "customer_id and items are required", nil)
	}

	var customer domain.Customer
	if err := GetDB(c).First(&customer, payload.CustomerId).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
	}

	target := time.Now()
	if payload.Date != "" {
		day, okDay := dateutil.ParseString(payload.Date)
		if !okDay {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid date", nil)
		}
		target = day
	}

	// resolve product names/prices the caller left blank
	for i := range payload.Items {
		item := &payload.Items[i]
		if item.Quantity < 1 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Item quantity must be >= 1", nil)
		}
		if item.ProductName == "" || item.Price <= 0 {
			var product domain.Product
			if err := GetDB(c).First(&product, item.ProductId).Error; err != nil {
				return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
			}
			if item.ProductName == "" {
				item.ProductName = product.Name
			}
			if item.Price <= 0 {
				item.Price = product.Price
			}
		}
	}

	items, total := delivery.MaterializeItems(payload.Items)
	if len(items) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No valid items", nil)
	}

	boyID := payload.DeliveryBoyId
	if boyID == 0 {
		boyID = customer.DeliveryBoyId
	}
	order := &domain.Order{
		ID:            common.UUIDint64(),
		CustomerId:    customer.ID,
		DeliveryBoyId: boyID,
		DeliveryDate:  dateutil.Normalize(target),
		Status:        domain.OrderScheduled,
		PaymentStatus: domain.PayUnpaid,
		TotalAmount:   total,
		Remark:        payload.Remark,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		no, err := delivery.NextOrderNo(tx, target)
		if err != nil {
			return err
		}
		order.OrderNo = no
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = common.UUIDint64()
			items[i].OrderId = order.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create order", err.Error())
	}
	order.Items = items
	logAction(c, "create_custom_order", order.OrderNo)
	return ok(c, order)
}

// allowedTransitions guards the order lifecycle.
var allowedTransitions = map[string][]string{
	domain.OrderScheduled:      {domain.OrderOutForDelivery, domain.OrderCancelled},
	domain.OrderOutForDelivery: {domain.OrderDelivered, domain.OrderFailed, domain.OrderCancelled},
}

func transitionAllowed(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func updateOrderStatus(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var order domain.Order
	if err := GetDB(c).Preload("Items").First(&order, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}

	var payload orderStatusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", err.Error())
	}
	next := strings.ToLower(strings.TrimSpace(payload.Status))
	if !transitionAllowed(order.Status, next) {
		return fail(c, http.StatusBadRequest, "INVALID_TRANSITION",
			"Cannot move order from "+order.Status+" to "+next, nil)
	}

	caller := currentIdentity(c)
	if caller.Kind == "boy" && caller.ID != order.DeliveryBoyId {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Order belongs to another route", nil)
	}

	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     next,
			"updated_at": time.Now(),
		}
		if payload.Remark != "" {
			updates["remark"] = payload.Remark
		}
		if err := tx.Model(&domain.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}
		if next != domain.OrderDelivered {
			return nil
		}
		// delivered: decrement stock and record issued bottles.
		// The customer's dues are charged by the monthly invoice, not
		// here, so a delivered order is never billed twice.
		for _, item := range order.Items {
			res := tx.Model(&domain.Product{}).Where("id = ? and stock >= ?", item.ProductId, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				zap.L().Warn("stock not decremented on delivery",
					zap.String("order_no", order.OrderNo),
					zap.Int64("product_id", item.ProductId),
					zap.Int("quantity", item.Quantity))
			}
		}
		if payload.Bottles > 0 {
			deposit := float64(appCtx.GetSettingsInt64Value(app.SettingsDelivery, "bottle_deposit"))
			if err := tx.Create(&domain.BottleTransaction{
				ID:         common.UUIDint64(),
				CustomerId: order.CustomerId,
				OrderId:    order.ID,
				Type:       domain.BottleIssued,
				Quantity:   payload.Bottles,
				Deposit:    deposit * float64(payload.Bottles),
				CreatedAt:  time.Now(),
			}).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.Customer{}).Where("id = ?", order.CustomerId).
				Update("bottle_balance", gorm.Expr("bottle_balance + ?", payload.Bottles)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order status", err.Error())
	}

	zap.L().Info("order status updated",
		zap.String("order_no", order.OrderNo), zap.String("from", order.Status), zap.String("to", next))
	order.Status = next
	return ok(c, order)
}

func exportOrdersCsv(c echo.Context) error {
	db := orderListQuery(c)

	var orders []domain.Order
	if err := db.Order("id").Limit(10000).Find(&orders).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	// resolve customer names in one pass
	customerIDs := make([]int64, 0, len(orders))
	for _, o := range orders {
		customerIDs = append(customerIDs, o.CustomerId)
	}
	var customers []domain.Customer
	GetDB(c).Where("id IN ?", customerIDs).Find(&customers)
	byID := make(map[int64]domain.Customer, len(customers))
	for _, cu := range customers {
		byID[cu.ID] = cu
	}

	rows := make([]orderCsvRow, 0, len(orders))
	for _, o := range orders {
		cu := byID[o.CustomerId]
		rows = append(rows, orderCsvRow{
			OrderNo:      o.OrderNo,
			DeliveryDate: dateutil.Format(o.DeliveryDate),
			Customer:     cu.Name,
			Phone:        cu.Phone,
			Status:       o.Status,
			Payment:      o.PaymentStatus,
			Total:        o.TotalAmount,
		})
	}

	data, err := gocsv.MarshalString(&rows)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to render CSV", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="orders.csv"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(data))
}
