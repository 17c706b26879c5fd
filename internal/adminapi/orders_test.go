package adminapi

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/milkrunhq/milkrun/internal/billing"
	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/common"
)

func seedOrderForDelivery(t *testing.T, db *gorm.DB, customerID, productID int64, qty int, price float64, day time.Time) domain.Order {
	t.Helper()
	order := domain.Order{
		ID:           common.UUIDint64(),
		OrderNo:      fmt.Sprintf("ORD-%s-0001", day.Format("20060102")),
		CustomerId:   customerID,
		DeliveryDate: day,
		Status:       domain.OrderOutForDelivery,
		TotalAmount:  float64(qty) * price,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	item := domain.OrderItem{
		ID:          common.UUIDint64(),
		OrderId:     order.ID,
		ProductId:   productID,
		ProductName: "Cow Milk",
		Quantity:    qty,
		Price:       price,
		TotalPrice:  float64(qty) * price,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return order
}

func deliverOrder(t *testing.T, db *gorm.DB, orderID int64) int {
	t.Helper()
	c, rec := newTestContext(t, db, http.MethodPut, "/", `{"status":"delivered"}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(orderID))
	if err := updateOrderStatus(c); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	return rec.Code
}

// Delivering an order and then invoicing the month must charge the
// customer's dues exactly once, at invoicing time.
func TestDeliveredOrderChargedOnce(t *testing.T) {
	db := newTestDB(t)
	customer := domain.Customer{ID: 300, Name: "Meera", Phone: "9800000300"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	product := domain.Product{Name: "Cow Milk", Price: 20, Stock: 10}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	order := seedOrderForDelivery(t, db, customer.ID, product.ID, 2, 20, day)

	if code := deliverOrder(t, db, order.ID); code != http.StatusOK {
		t.Fatalf("deliver status = %d", code)
	}

	var afterDeliver domain.Customer
	db.First(&afterDeliver, customer.ID)
	if afterDeliver.AmountDue != 0 {
		t.Fatalf("amount_due = %v after delivery, want 0 until invoiced", afterDeliver.AmountDue)
	}

	start, end := billing.BillingPeriod(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	inv, err := billing.GenerateInvoice(db, customer.ID, "INV-202501-0001", start, end)
	if err != nil {
		t.Fatalf("invoice: %v", err)
	}
	if inv == nil || inv.TotalAmount != 40 {
		t.Fatalf("invoice = %+v, want total 40", inv)
	}

	var afterInvoice domain.Customer
	db.First(&afterInvoice, customer.ID)
	if afterInvoice.AmountDue != 40 {
		t.Fatalf("amount_due = %v after invoicing, want 40 charged once", afterInvoice.AmountDue)
	}
}

func TestDeliveredOrderDecrementsStock(t *testing.T) {
	db := newTestDB(t)
	customer := domain.Customer{ID: 301, Name: "Kiran", Phone: "9800000301"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	product := domain.Product{Name: "Cow Milk", Price: 20, Stock: 10}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	order := seedOrderForDelivery(t, db, customer.ID, product.ID, 2, 20, day)

	if code := deliverOrder(t, db, order.ID); code != http.StatusOK {
		t.Fatalf("deliver status = %d", code)
	}

	var p domain.Product
	db.First(&p, product.ID)
	if p.Stock != 8 {
		t.Fatalf("stock = %d, want 8", p.Stock)
	}
}

// Insufficient stock must not drive the count negative; the delivery
// still completes and the shortfall is logged.
func TestDeliveredOrderStockNeverNegative(t *testing.T) {
	db := newTestDB(t)
	customer := domain.Customer{ID: 302, Name: "Anil", Phone: "9800000302"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	product := domain.Product{Name: "Cow Milk", Price: 20, Stock: 1}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	order := seedOrderForDelivery(t, db, customer.ID, product.ID, 5, 20, day)

	if code := deliverOrder(t, db, order.ID); code != http.StatusOK {
		t.Fatalf("deliver status = %d", code)
	}

	var p domain.Product
	db.First(&p, product.ID)
	if p.Stock != 1 {
		t.Fatalf("stock = %d, want 1 untouched on shortfall", p.Stock)
	}
	var reloaded domain.Order
	db.First(&reloaded, order.ID)
	if reloaded.Status != domain.OrderDelivered {
		t.Fatalf("status = %q, want delivered", reloaded.Status)
	}
}
