package delivery

import (
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
)

func day(s string) time.Time {
	d, ok := dateutil.ParseString(s)
	if !ok {
		panic("bad test date: " + s)
	}
	return d
}

func testCustomer() *domain.Customer {
	return &domain.Customer{
		ID:                 1001,
		Name:               "Asha Rao",
		SubscriptionPlan:   domain.PlanMonthly,
		SubscriptionStatus: "active",
		StartDate:          day("01/01/2025"),
		EndDate:            day("31/01/2025"),
	}
}

func testLine(cadence string) *domain.CustomerProduct {
	return &domain.CustomerProduct{
		ID:           2001,
		CustomerId:   1001,
		ProductId:    3001,
		Quantity:     1,
		Price:        30,
		DeliveryDays: cadence,
		StartDate:    day("01/01/2025"),
		EndDate:      day("31/01/2025"),
	}
}

func TestParseCadence(t *testing.T) {
	cases := map[string]Cadence{
		"daily":            CadenceDaily,
		"Daily":            CadenceDaily,
		"alternate_days":   CadenceAlternateDays,
		"Alternate Days":   CadenceAlternateDays,
		"Monday to Friday": CadenceMonToFri,
		"mon_to_fri":       CadenceMonToFri,
		"Weekends":         CadenceWeekends,
		"Custom Date":      CadenceCustomDates,
		"custom":           CadenceCustomDates,
		"":                 CadenceUnknown,
		"fortnightly":      CadenceUnknown,
	}
	for in, want := range cases {
		if got := ParseCadence(in); got != want {
			t.Errorf("ParseCadence(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAbsenceSuppressesEveryCadence(t *testing.T) {
	c := testCustomer()
	c.AbsentDays = datatypes.JSONSlice[string]{"06/01/2025"}
	target := day("06/01/2025") // a Monday
	for _, cadence := range []string{
		DeliveryDaily, DeliveryAlternateDays, DeliveryMonToFri, DeliveryWeekends, DeliveryCustom,
	} {
		line := testLine(cadence)
		if cadence == DeliveryCustom {
			c.CustomDeliveryDates = datatypes.JSONSlice[string]{"06/01/2025"}
		}
		if ShouldDeliver(c, line, target) {
			t.Errorf("cadence %s: absent day must suppress delivery", cadence)
		}
	}
}

func TestIsAbsent(t *testing.T) {
	c := testCustomer()
	if IsAbsent(c, day("05/01/2025")) {
		t.Error("empty absence list must be false")
	}
	c.AbsentDays = datatypes.JSONSlice[string]{"garbage", "05/01/2025"}
	if !IsAbsent(c, day("05/01/2025")) {
		t.Error("listed day must be absent even with unparsable siblings")
	}
	// time component on the probe must not matter
	if !IsAbsent(c, time.Date(2025, 1, 5, 18, 45, 0, 0, time.UTC)) {
		t.Error("absence must compare calendar days, not instants")
	}
}

func TestDailyWindow(t *testing.T) {
	c := testCustomer()
	line := testLine(DeliveryDaily)
	line.StartDate = day("05/01/2025")
	line.EndDate = day("10/01/2025")

	for d := day("05/01/2025"); !d.After(day("10/01/2025")); d = d.AddDate(0, 0, 1) {
		if !ShouldDeliver(c, line, d) {
			t.Errorf("daily line must deliver on %s", dateutil.Format(d))
		}
	}
	if ShouldDeliver(c, line, day("04/01/2025")) {
		t.Error("daily line must not deliver before start")
	}
	if ShouldDeliver(c, line, day("11/01/2025")) {
		t.Error("daily line must not deliver after end")
	}
}

func TestAlternateDaysParity(t *testing.T) {
	c := testCustomer()
	line := testLine(DeliveryAlternateDays)

	eligible := []string{"01/01/2025", "03/01/2025", "05/01/2025", "07/01/2025"}
	ineligible := []string{"02/01/2025", "04/01/2025", "06/01/2025"}
	for _, s := range eligible {
		if !ShouldDeliver(c, line, day(s)) {
			t.Errorf("alternate days: %s must be eligible", s)
		}
	}
	for _, s := range ineligible {
		if ShouldDeliver(c, line, day(s)) {
			t.Errorf("alternate days: %s must not be eligible", s)
		}
	}

	// parity anchored at the line start, not any absolute epoch
	line.StartDate = day("02/01/2025")
	if !ShouldDeliver(c, line, day("02/01/2025")) {
		t.Error("start day itself must deliver")
	}
	if ShouldDeliver(c, line, day("03/01/2025")) {
		t.Error("day after start must not deliver")
	}
	if !ShouldDeliver(c, line, day("04/01/2025")) {
		t.Error("two days after start must deliver")
	}
}

func TestWeekdayCadences(t *testing.T) {
	c := testCustomer()
	weekday := testLine(DeliveryMonToFri)
	weekend := testLine(DeliveryWeekends)

	// 06/01/2025 Mon ... 12/01/2025 Sun
	for i := 0; i < 5; i++ {
		d := day("06/01/2025").AddDate(0, 0, i)
		if !ShouldDeliver(c, weekday, d) {
			t.Errorf("mon_to_fri must deliver on %s", dateutil.Format(d))
		}
		if ShouldDeliver(c, weekend, d) {
			t.Errorf("weekends must not deliver on %s", dateutil.Format(d))
		}
	}
	for i := 5; i < 7; i++ {
		d := day("06/01/2025").AddDate(0, 0, i)
		if ShouldDeliver(c, weekday, d) {
			t.Errorf("mon_to_fri must not deliver on %s", dateutil.Format(d))
		}
		if !ShouldDeliver(c, weekend, d) {
			t.Errorf("weekends must deliver on %s", dateutil.Format(d))
		}
	}
}

func TestCustomDates(t *testing.T) {
	c := testCustomer()
	c.CustomDeliveryDates = datatypes.JSONSlice[string]{"05/01/2025", "10/01/2025"}
	line := testLine(DeliveryCustom)

	if !ShouldDeliver(c, line, day("05/01/2025")) {
		t.Error("listed custom date must be eligible")
	}
	if !ShouldDeliver(c, line, day("10/01/2025")) {
		t.Error("listed custom date must be eligible")
	}
	if ShouldDeliver(c, line, day("06/01/2025")) {
		t.Error("unlisted date must not be eligible")
	}
	// ISO-form stored date still matches after normalization
	c.CustomDeliveryDates = datatypes.JSONSlice[string]{"2025-01-05"}
	if !ShouldDeliver(c, line, day("05/01/2025")) {
		t.Error("ISO stored custom date must normalize and match")
	}
}

func TestUnknownCadenceFailsClosed(t *testing.T) {
	c := testCustomer()
	for _, cadence := range []string{"", "sometimes", "biweekly"} {
		if ShouldDeliver(c, testLine(cadence), day("05/01/2025")) {
			t.Errorf("cadence %q must fail closed", cadence)
		}
	}
}

func TestShouldDeliverNilInputs(t *testing.T) {
	if ShouldDeliver(nil, testLine(DeliveryDaily), day("05/01/2025")) {
		t.Error("nil customer must be false")
	}
	if ShouldDeliver(testCustomer(), nil, day("05/01/2025")) {
		t.Error("nil line must be false")
	}
	line := testLine(DeliveryDaily)
	line.StartDate = time.Time{}
	if ShouldDeliver(testCustomer(), line, day("05/01/2025")) {
		t.Error("zero start date must be false, not a panic")
	}
}
