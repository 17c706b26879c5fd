package billing

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/common"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedDeliveredOrder(t *testing.T, db *gorm.DB, customerID int64, day time.Time, amount float64) {
	t.Helper()
	id := common.UUIDint64()
	order := domain.Order{
		ID:           id,
		OrderNo:      fmt.Sprintf("ORD-%s-%d", day.Format("20060102"), id),
		CustomerId:   customerID,
		DeliveryDate: day,
		Status:       domain.OrderDelivered,
		TotalAmount:  amount,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func TestBillingPeriod(t *testing.T) {
	run := time.Date(2025, 2, 10, 15, 30, 0, 0, time.UTC)
	start, end := BillingPeriod(run)
	if start != time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("start = %v", start)
	}
	if end != time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("end = %v", end)
	}
}

func TestGenerateInvoice(t *testing.T) {
	db := newTestDB(t)
	customer := domain.Customer{ID: 100, Name: "Asha", Phone: "9800000100", SubscriptionStatus: domain.SubscriptionActive}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	jan := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }
	seedDeliveredOrder(t, db, 100, jan(5), 40)
	seedDeliveredOrder(t, db, 100, jan(6), 40)
	seedDeliveredOrder(t, db, 100, jan(7), 60)
	// outside the period, must be excluded
	seedDeliveredOrder(t, db, 100, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 500)

	start, end := BillingPeriod(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	inv, err := GenerateInvoice(db, 100, "INV-202501-0001", start, end)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if inv == nil {
		t.Fatal("expected an invoice")
	}
	if inv.OrderCount != 3 {
		t.Fatalf("order count = %d, want 3", inv.OrderCount)
	}
	if inv.TotalAmount != 140 {
		t.Fatalf("total = %v, want 140", inv.TotalAmount)
	}
	if len(inv.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(inv.Items))
	}

	var reloaded domain.Customer
	db.First(&reloaded, 100)
	if reloaded.AmountDue != 140 {
		t.Fatalf("amount_due = %v, want 140", reloaded.AmountDue)
	}
}

func TestGenerateInvoiceNoOrders(t *testing.T) {
	db := newTestDB(t)
	customer := domain.Customer{ID: 101, Name: "Ravi", Phone: "9800000101"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	start, end := BillingPeriod(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	inv, err := GenerateInvoice(db, 101, "INV-202501-0001", start, end)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if inv != nil {
		t.Fatal("expected no invoice for a customer with no delivered orders")
	}
}

func TestGenerateMonthlyInvoices(t *testing.T) {
	db := newTestDB(t)
	for i, phone := range []string{"9800000201", "9800000202"} {
		c := domain.Customer{ID: int64(200 + i), Name: fmt.Sprintf("C%d", i), Phone: phone}
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed customer: %v", err)
		}
		seedDeliveredOrder(t, db, c.ID, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), 100)
	}

	created, err := GenerateMonthlyInvoices(db, "INV", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	var invoices []domain.Invoice
	db.Order("invoice_no").Find(&invoices)
	if len(invoices) != 2 {
		t.Fatalf("invoices = %d, want 2", len(invoices))
	}
	if invoices[0].InvoiceNo != "INV-202501-0001" || invoices[1].InvoiceNo != "INV-202501-0002" {
		t.Fatalf("invoice numbers = %q, %q", invoices[0].InvoiceNo, invoices[1].InvoiceNo)
	}
}
