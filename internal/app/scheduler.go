package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/milkrunhq/milkrun/internal/billing"
	"github.com/milkrunhq/milkrun/internal/delivery"
	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
	"github.com/milkrunhq/milkrun/pkg/metrics"
)

// StartSchedulerService polls enabled delivery_schedule rows and runs
// due tasks
func (a *Application) StartSchedulerService(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.runSchedulers()
			}
		}
	}()
}

// runSchedulers executes enabled schedulers whose next run is due
func (a *Application) runSchedulers() {
	var schedulers []domain.DeliverySchedule
	a.gormDB.Where("status = ?", "enabled").Find(&schedulers)
	now := time.Now()
	for _, sched := range schedulers {
		if sched.NextRunAt.IsZero() || now.After(sched.NextRunAt) || now.Equal(sched.NextRunAt) {
			a.runSchedule(&sched)
			a.gormDB.Model(&domain.DeliverySchedule{}).Where("id = ?", sched.ID).
				Update("next_run_at", now.Add(time.Duration(sched.Interval)*time.Second))
		}
	}
}

// RunSchedulerNow triggers a scheduler execution immediately by ID
func (a *Application) RunSchedulerNow(id int64) error {
	var sched domain.DeliverySchedule
	if err := a.gormDB.First(&sched, id).Error; err != nil {
		return err
	}
	a.runSchedule(&sched)
	now := time.Now()
	a.gormDB.Model(&domain.DeliverySchedule{}).Where("id = ?", sched.ID).Updates(map[string]interface{}{
		"next_run_at": now.Add(time.Duration(sched.Interval) * time.Second),
	})
	return nil
}

// runSchedule dispatches one task row and records its outcome.
func (a *Application) runSchedule(sched *domain.DeliverySchedule) {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error("scheduler task panic: ", err)
		}
	}()
	zap.L().Info("scheduler task starting",
		zap.Int64("scheduler_id", sched.ID), zap.String("task_type", sched.TaskType))

	result, message := "success", ""
	today := dateutil.Normalize(time.Now())

	switch sched.TaskType {
	case domain.TaskGenerateToday:
		created, skipped, failed := a.GenerateOrdersForDate(today)
		message = fmt.Sprintf("created=%d skipped=%d failed=%d", created, skipped, failed)
		if failed > 0 {
			result = "partial"
		}
	case domain.TaskGenerateTomorrow:
		lookahead := a.settings.DeliverySettings().LookaheadDays
		if lookahead <= 0 {
			lookahead = 1
		}
		created, skipped, failed := a.GenerateOrdersForDate(today.AddDate(0, 0, lookahead))
		message = fmt.Sprintf("created=%d skipped=%d failed=%d", created, skipped, failed)
		if failed > 0 {
			result = "partial"
		}
	case domain.TaskRenewMonthly:
		renewed := a.RenewSubscriptions(today)
		message = fmt.Sprintf("renewed=%d", renewed)
	case domain.TaskMonthlyInvoices:
		// runs daily, does work only on the first of the month
		if today.Day() != 1 {
			result, message = "skipped", "not the first of the month"
			break
		}
		count, err := billing.GenerateMonthlyInvoices(a.gormDB, a.settings.GetString(SettingsBilling, "invoice_prefix"), today)
		if err != nil {
			result, message = "failed", err.Error()
			break
		}
		message = fmt.Sprintf("invoices=%d", count)
	default:
		result, message = "failed", "unsupported task type"
	}

	a.gormDB.Model(&domain.DeliverySchedule{}).Where("id = ?", sched.ID).Updates(map[string]interface{}{
		"last_run_at":  time.Now(),
		"last_result":  result,
		"last_message": message,
	})
	zap.L().Info("scheduler task finished",
		zap.String("task_type", sched.TaskType), zap.String("result", result), zap.String("message", message))
}

// GenerateOrdersForDate materializes orders for every active customer
// whose subscription window contains the target date. Customers are
// processed through a bounded worker pool; one failing customer never
// aborts the batch.
func (a *Application) GenerateOrdersForDate(target time.Time) (created, skipped, failed int) {
	day := dateutil.Normalize(target)

	var customers []domain.Customer
	err := a.gormDB.
		Where("subscription_status = ?", domain.SubscriptionActive).
		Where("start_date <= ? and end_date >= ?", day, day).
		Find(&customers).Error
	if err != nil {
		zap.L().Error("order generation query failed", zap.Error(err))
		return 0, 0, 0
	}

	maxWorkers := a.settings.DeliverySettings().MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 20
	}
	pool, err := ants.NewPool(maxWorkers)
	if err != nil {
		zap.L().Error("worker pool init failed", zap.Error(err))
		return 0, 0, 0
	}
	defer pool.Release()

	var nCreated, nSkipped, nFailed int64
	var wg sync.WaitGroup
	for i := range customers {
		customerID := customers[i].ID
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					atomic.AddInt64(&nFailed, 1)
					zap.S().Error("order generation panic: ", r)
				}
			}()
			customer, err := delivery.LoadCustomer(a.gormDB, customerID)
			if err != nil {
				atomic.AddInt64(&nFailed, 1)
				zap.L().Error("load customer failed", zap.Int64("customer_id", customerID), zap.Error(err))
				return
			}
			_, err = delivery.CreateAutomaticOrder(a.gormDB, customer, day)
			switch {
			case errors.Is(err, delivery.ErrNothingDue), errors.Is(err, delivery.ErrOrderExists):
				atomic.AddInt64(&nSkipped, 1)
			case err != nil:
				atomic.AddInt64(&nFailed, 1)
				zap.L().Error("order creation failed", zap.Int64("customer_id", customerID), zap.Error(err))
			default:
				atomic.AddInt64(&nCreated, 1)
			}
		})
		if submitErr != nil {
			wg.Done()
			atomic.AddInt64(&nFailed, 1)
		}
	}
	wg.Wait()

	metrics.SetGauge("orders_generated", nCreated)
	return int(nCreated), int(nSkipped), int(nFailed)
}

// RenewSubscriptions rolls monthly subscriptions ending on the run
// date forward one month. The decision itself is the pure
// delivery.RenewalDue; this only applies it.
func (a *Application) RenewSubscriptions(runDate time.Time) int {
	day := dateutil.Normalize(runDate)

	var candidates []domain.Customer
	err := a.gormDB.
		Where("subscription_plan = ? and subscription_status = ?", domain.PlanMonthly, domain.SubscriptionActive).
		Where("end_date = ?", day).
		Find(&candidates).Error
	if err != nil {
		zap.L().Error("renewal query failed", zap.Error(err))
		return 0
	}

	renewed := 0
	for i := range candidates {
		c := &candidates[i]
		if !delivery.RenewalDue(c, day) {
			continue
		}
		next := delivery.NextEndDate(c.EndDate)
		err := a.gormDB.Model(&domain.Customer{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
			"end_date":   next,
			"updated_at": time.Now(),
		}).Error
		if err != nil {
			zap.L().Error("renewal update failed", zap.Int64("customer_id", c.ID), zap.Error(err))
			continue
		}
		renewed++
		zap.L().Info("subscription renewed",
			zap.Int64("customer_id", c.ID), zap.String("end_date", dateutil.Format(next)))
	}
	return renewed
}
