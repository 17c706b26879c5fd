package adminapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/internal/webserver"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
	"github.com/milkrunhq/milkrun/pkg/metrics"
)

func registerDashboardRoutes() {
	webserver.ApiGET("/dashboard/summary", dashboardSummary)
	webserver.ApiGET("/dashboard/metrics/:name", dashboardMetricSeries)
}

// dashboardSummary aggregates the counters the admin home screen
// shows. Counts come from the database, not the gauge cache, so a
// restart never zeroes the dashboard.
func dashboardSummary(c echo.Context) error {
	db := GetDB(c)
	today := dateutil.Normalize(time.Now())
	tomorrow := today.AddDate(0, 0, 1)

	var activeCustomers, inactiveCustomers, deliveryBoys, products int64
	db.Model(&domain.Customer{}).Where("subscription_status = ?", domain.SubscriptionActive).Count(&activeCustomers)
	db.Model(&domain.Customer{}).Where("subscription_status <> ?", domain.SubscriptionActive).Count(&inactiveCustomers)
	db.Model(&domain.DeliveryBoy{}).Count(&deliveryBoys)
	db.Model(&domain.Product{}).Count(&products)

	type orderAgg struct {
		Status string
		Count  int64
	}
	var byStatus []orderAgg
	db.Model(&domain.Order{}).
		Select("status, COUNT(*) as count").
		Where("delivery_date >= ? AND delivery_date < ?", today, tomorrow).
		Group("status").Scan(&byStatus)

	ordersToday := map[string]int64{}
	for _, row := range byStatus {
		ordersToday[row.Status] = row.Count
	}

	var revenueToday float64
	db.Model(&domain.Order{}).
		Select("COALESCE(SUM(total_amount),0)").
		Where("delivery_date >= ? AND delivery_date < ? AND status = ?", today, tomorrow, domain.OrderDelivered).
		Scan(&revenueToday)

	var monthRevenue float64
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	db.Model(&domain.Payment{}).
		Select("COALESCE(SUM(amount),0)").
		Where("created_at >= ? AND status = ?", monthStart, domain.PaymentSuccess).
		Scan(&monthRevenue)

	var outstanding float64
	db.Model(&domain.Customer{}).Select("COALESCE(SUM(amount_due),0)").Scan(&outstanding)

	var bottlesOut int64
	db.Model(&domain.Customer{}).Select("COALESCE(SUM(bottle_balance),0)").Scan(&bottlesOut)

	var unpaidInvoices int64
	db.Model(&domain.Invoice{}).Where("status <> ?", domain.InvoicePaid).Count(&unpaidInvoices)

	return ok(c, map[string]interface{}{
		"date":               dateutil.Format(today),
		"active_customers":   activeCustomers,
		"inactive_customers": inactiveCustomers,
		"delivery_boys":      deliveryBoys,
		"products":           products,
		"orders_today":       ordersToday,
		"revenue_today":      revenueToday,
		"revenue_month":      monthRevenue,
		"amount_outstanding": outstanding,
		"bottles_out":        bottlesOut,
		"unpaid_invoices":    unpaidInvoices,
	})
}

// dashboardMetricSeries returns a stored gauge series for charting.
func dashboardMetricSeries(c echo.Context) error {
	name := c.Param("name")
	end := time.Now().Unix()
	start := end - 86400
	if v := c.QueryParam("hours"); v != "" {
		if hours, err := time.ParseDuration(v + "h"); err == nil {
			start = end - int64(hours.Seconds())
		}
	}

	points, err := metrics.Select(name, start, end)
	if err != nil {
		return ok(c, map[string]interface{}{"name": name, "points": []interface{}{}})
	}
	return ok(c, map[string]interface{}{"name": name, "points": points})
}
