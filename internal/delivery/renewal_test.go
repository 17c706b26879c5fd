package delivery

import (
	"testing"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
)

func TestRenewalDue(t *testing.T) {
	c := testCustomer()
	c.EndDate = day("31/01/2025")

	if !RenewalDue(c, day("31/01/2025")) {
		t.Error("monthly plan ending today must renew")
	}
	if RenewalDue(c, day("30/01/2025")) {
		t.Error("end date not yet reached, no renewal")
	}

	c.SubscriptionPlan = domain.PlanAlternateDays
	if RenewalDue(c, day("31/01/2025")) {
		t.Error("non-monthly plan never renews")
	}

	c.SubscriptionPlan = domain.PlanMonthly
	c.SubscriptionStatus = "inactive"
	if RenewalDue(c, day("31/01/2025")) {
		t.Error("inactive subscription never renews")
	}
}

func TestNextEndDate(t *testing.T) {
	if got := NextEndDate(day("15/01/2025")); dateutil.Format(got) != "15/02/2025" {
		t.Errorf("NextEndDate = %s, want 15/02/2025", dateutil.Format(got))
	}
	// Jan 31 + 1 month normalizes per time.AddDate
	if got := NextEndDate(day("31/01/2025")); dateutil.Format(got) != "03/03/2025" {
		t.Errorf("NextEndDate(31/01) = %s, want 03/03/2025", dateutil.Format(got))
	}
}
