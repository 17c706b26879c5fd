package delivery

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/milkrunhq/milkrun/internal/domain"
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

func seedCustomer(t *testing.T, db *gorm.DB, id int64) *domain.Customer {
	t.Helper()
	product := &domain.Product{Name: "Cow Milk", Size: "500ml", Price: 20, Status: "enabled"}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	c := testCustomer()
	c.ID = id
	c.Phone = fmt.Sprintf("98%09d", id)
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	line := &domain.CustomerProduct{
		CustomerId: c.ID, ProductId: product.ID,
		Size: "500ml", Quantity: 2, Price: 20, TotalPrice: 40,
		DeliveryDays: DeliveryDaily,
		StartDate:    day("01/01/2025"), EndDate: day("31/01/2025"),
	}
	if err := db.Create(line).Error; err != nil {
		t.Fatalf("seed line: %v", err)
	}
	loaded, err := LoadCustomer(db, c.ID)
	if err != nil {
		t.Fatalf("load customer: %v", err)
	}
	return loaded
}

func TestCreateAutomaticOrder(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, 1)

	order, err := CreateAutomaticOrder(db, c, day("05/01/2025"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.OrderNo != "ORD-20250105-0001" {
		t.Errorf("order no = %s, want ORD-20250105-0001", order.OrderNo)
	}
	if order.Status != domain.OrderScheduled {
		t.Errorf("status = %s, want scheduled", order.Status)
	}
	if order.TotalAmount != 40 {
		t.Errorf("total = %v, want 40", order.TotalAmount)
	}
	if len(order.Items) != 1 || order.Items[0].ProductName != "Cow Milk" {
		t.Errorf("items wrong: %+v", order.Items)
	}

	// sum of item totals must equal the order total
	var sum float64
	for _, it := range order.Items {
		sum += it.TotalPrice
	}
	if sum != order.TotalAmount {
		t.Errorf("item sum %v != order total %v", sum, order.TotalAmount)
	}

	// same-day sequence advances
	c2 := seedCustomer(t, db, 2)
	order2, err := CreateAutomaticOrder(db, c2, day("05/01/2025"))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if order2.OrderNo != "ORD-20250105-0002" {
		t.Errorf("second order no = %s, want ORD-20250105-0002", order2.OrderNo)
	}

	// a different day restarts at 0001
	order3, err := CreateAutomaticOrder(db, c, day("06/01/2025"))
	if err != nil {
		t.Fatalf("create next day: %v", err)
	}
	if order3.OrderNo != "ORD-20250106-0001" {
		t.Errorf("next day order no = %s, want ORD-20250106-0001", order3.OrderNo)
	}
}

func TestCreateAutomaticOrderIdempotent(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, 1)

	if _, err := CreateAutomaticOrder(db, c, day("05/01/2025")); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := CreateAutomaticOrder(db, c, day("05/01/2025"))
	if !errors.Is(err, ErrOrderExists) {
		t.Errorf("expected ErrOrderExists, got %v", err)
	}
	var count int64
	db.Model(&domain.Order{}).Where("customer_id = ?", c.ID).Count(&count)
	if count != 1 {
		t.Errorf("orders = %d, want 1", count)
	}
}

func TestCreateAutomaticOrderNothingDue(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, 1)

	_, err := CreateAutomaticOrder(db, c, day("01/02/2025"))
	if !errors.Is(err, ErrNothingDue) {
		t.Errorf("expected ErrNothingDue, got %v", err)
	}
	var count int64
	db.Model(&domain.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("no order row should exist, found %d", count)
	}
}

func TestConcurrentOrderNumbersDistinct(t *testing.T) {
	db := newTestDB(t)
	const n = 8
	customers := make([]*domain.Customer, n)
	for i := 0; i < n; i++ {
		customers[i] = seedCustomer(t, db, int64(i+1))
	}

	var wg sync.WaitGroup
	orderNos := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order, err := CreateAutomaticOrder(db, customers[i], day("05/01/2025"))
			if err != nil {
				errs[i] = err
				return
			}
			orderNos[i] = order.OrderNo
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("creator %d failed: %v", i, errs[i])
		}
		if seen[orderNos[i]] {
			t.Errorf("duplicate order number %s", orderNos[i])
		}
		seen[orderNos[i]] = true
	}
}
