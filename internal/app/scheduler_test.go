package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/milkrunhq/milkrun/config"
	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/common"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	a := NewApplication(config.DefaultAppConfig)
	a.OverrideDB(newTestDB(t))
	return a
}

func seedSubscriber(t *testing.T, a *Application, id int64, plan string, start, end time.Time) {
	t.Helper()
	db := a.DB()
	product := &domain.Product{ID: id + 9000, Name: "Cow Milk", Size: "500ml", Price: 30, Status: common.ENABLED}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	customer := &domain.Customer{
		ID:                 id,
		Name:               fmt.Sprintf("Customer %d", id),
		Phone:              fmt.Sprintf("98%09d", id),
		SubscriptionPlan:   plan,
		SubscriptionStatus: domain.SubscriptionActive,
		StartDate:          start,
		EndDate:            end,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	line := &domain.CustomerProduct{
		ID:           id + 5000,
		CustomerId:   id,
		ProductId:    product.ID,
		Size:         product.Size,
		Quantity:     1,
		Price:        product.Price,
		DeliveryDays: "daily",
		StartDate:    start,
		EndDate:      end,
	}
	if err := db.Create(line).Error; err != nil {
		t.Fatalf("seed line: %v", err)
	}
}

func TestGenerateOrdersForDate(t *testing.T) {
	a := newTestApp(t)
	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	seedSubscriber(t, a, 1, domain.PlanMonthly, day.AddDate(0, 0, -5), day.AddDate(0, 0, 20))
	seedSubscriber(t, a, 2, domain.PlanMonthly, day.AddDate(0, 0, -5), day.AddDate(0, 0, 20))
	// window already over, must not produce an order
	seedSubscriber(t, a, 3, domain.PlanMonthly, day.AddDate(0, -2, 0), day.AddDate(0, 0, -1))

	created, skipped, failed := a.GenerateOrdersForDate(day)
	if created != 2 || skipped != 0 || failed != 0 {
		t.Fatalf("created=%d skipped=%d failed=%d, want 2/0/0", created, skipped, failed)
	}

	var orders []domain.Order
	a.DB().Order("order_no").Find(&orders)
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}
	for _, o := range orders {
		if !o.DeliveryDate.Equal(day) {
			t.Fatalf("delivery date = %v, want %v", o.DeliveryDate, day)
		}
		if o.Status != domain.OrderScheduled {
			t.Fatalf("status = %q", o.Status)
		}
	}

	// second run must not duplicate
	created, skipped, _ = a.GenerateOrdersForDate(day)
	if created != 0 || skipped != 2 {
		t.Fatalf("rerun created=%d skipped=%d, want 0/2", created, skipped)
	}
}

func TestRenewSubscriptions(t *testing.T) {
	a := newTestApp(t)
	day := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	seedSubscriber(t, a, 10, domain.PlanMonthly, day.AddDate(0, -1, 0), day)
	// ends later, not due
	seedSubscriber(t, a, 11, domain.PlanMonthly, day.AddDate(0, -1, 0), day.AddDate(0, 0, 5))

	renewed := a.RenewSubscriptions(day)
	if renewed != 1 {
		t.Fatalf("renewed = %d, want 1", renewed)
	}

	var c domain.Customer
	a.DB().First(&c, 10)
	want := day.AddDate(0, 1, 0)
	if !c.EndDate.Equal(want) {
		t.Fatalf("end_date = %v, want %v", c.EndDate, want)
	}
}

func TestRunSchedulerNow(t *testing.T) {
	a := newTestApp(t)

	sched := domain.DeliverySchedule{
		ID:       common.UUIDint64(),
		Name:     "generate today",
		TaskType: domain.TaskGenerateToday,
		Interval: 86400,
		Status:   common.ENABLED,
	}
	if err := a.DB().Create(&sched).Error; err != nil {
		t.Fatalf("seed scheduler: %v", err)
	}

	if err := a.RunSchedulerNow(sched.ID); err != nil {
		t.Fatalf("run: %v", err)
	}

	var reloaded domain.DeliverySchedule
	a.DB().First(&reloaded, sched.ID)
	if reloaded.NextRunAt.IsZero() {
		t.Fatal("next_run_at not rescheduled")
	}
	if err := a.RunSchedulerNow(99999); err == nil {
		t.Fatal("expected error for unknown scheduler id")
	}
}
