package delivery

import (
	"time"

	"go.uber.org/zap"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
)

// IsAbsent reports whether the customer marked target's calendar day
// as an absence. Entries that fail to parse are skipped rather than
// blocking the whole list.
func IsAbsent(customer *domain.Customer, target time.Time) bool {
	if customer == nil || len(customer.AbsentDays) == 0 {
		return false
	}
	day := dateutil.Normalize(target)
	for _, raw := range customer.AbsentDays {
		d, ok := dateutil.ParseString(raw)
		if !ok {
			zap.L().Debug("skipping unparsable absent day",
				zap.Int64("customer_id", customer.ID), zap.String("value", raw))
			continue
		}
		if d.Equal(day) {
			return true
		}
	}
	return false
}

// ShouldDeliver decides whether one subscription line is due on the
// target date. It is a pure predicate: every failure mode, including
// unparsable dates and unknown cadence values, answers false.
//
// Checks run in order and short-circuit: absence, validity window,
// then the cadence rule.
func ShouldDeliver(customer *domain.Customer, line *domain.CustomerProduct, target time.Time) bool {
	if customer == nil || line == nil {
		return false
	}
	day := dateutil.Normalize(target)

	if IsAbsent(customer, day) {
		return false
	}

	start, ok := dateutil.Parse(line.StartDate)
	if !ok {
		zap.L().Warn("subscription line has no usable start date",
			zap.Int64("customer_id", customer.ID), zap.Int64("line_id", line.ID))
		return false
	}
	if day.Before(start) {
		return false
	}
	if end, ok := dateutil.Parse(line.EndDate); ok && day.After(end) {
		return false
	}

	switch ParseCadence(line.DeliveryDays) {
	case CadenceDaily:
		return true
	case CadenceAlternateDays:
		// Parity anchored at the line's start date: the start day
		// itself delivers, then every second day.
		return dateutil.DaysBetween(start, day)%2 == 0
	case CadenceMonToFri:
		wd := day.Weekday()
		return wd >= time.Monday && wd <= time.Friday
	case CadenceWeekends:
		wd := day.Weekday()
		return wd == time.Saturday || wd == time.Sunday
	case CadenceCustomDates:
		want := dateutil.Format(day)
		for _, raw := range customer.CustomDeliveryDates {
			d, ok := dateutil.ParseString(raw)
			if !ok {
				continue
			}
			if dateutil.Format(d) == want {
				return true
			}
		}
		return false
	default:
		zap.L().Warn("unknown delivery cadence, not delivering",
			zap.Int64("line_id", line.ID), zap.String("delivery_days", line.DeliveryDays))
		return false
	}
}
