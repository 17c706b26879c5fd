package delivery

import (
	"time"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
)

// RenewalDue reports whether a monthly subscription should roll over
// on the run date: plan is monthly, the subscription is active and its
// end date is the run day. Kept separate from order generation so the
// scheduler tick can run both as independent steps.
func RenewalDue(customer *domain.Customer, runDate time.Time) bool {
	if customer == nil || customer.SubscriptionPlan != domain.PlanMonthly {
		return false
	}
	if customer.SubscriptionStatus != domain.SubscriptionActive {
		return false
	}
	end, ok := dateutil.Parse(customer.EndDate)
	if !ok {
		return false
	}
	return end.Equal(dateutil.Normalize(runDate))
}

// NextEndDate advances a subscription end date by one calendar month.
func NextEndDate(end time.Time) time.Time {
	return dateutil.Normalize(end).AddDate(0, 1, 0)
}
