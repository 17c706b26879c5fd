package delivery

import "strings"

// Cadence is the delivery rhythm attached to a subscription line.
// Stored strings from the admin UI (and legacy records with display
// names) are parsed into this closed set; anything unrecognized maps
// to CadenceUnknown, which never delivers.
type Cadence int

const (
	CadenceUnknown Cadence = iota
	CadenceDaily
	CadenceAlternateDays
	CadenceMonToFri
	CadenceWeekends
	CadenceCustomDates
)

// Canonical stored values for CustomerProduct.DeliveryDays.
const (
	DeliveryDaily         = "daily"
	DeliveryAlternateDays = "alternate_days"
	DeliveryMonToFri      = "mon_to_fri"
	DeliveryWeekends      = "weekends"
	DeliveryCustom        = "custom"
)

func (c Cadence) String() string {
	switch c {
	case CadenceDaily:
		return DeliveryDaily
	case CadenceAlternateDays:
		return DeliveryAlternateDays
	case CadenceMonToFri:
		return DeliveryMonToFri
	case CadenceWeekends:
		return DeliveryWeekends
	case CadenceCustomDates:
		return DeliveryCustom
	default:
		return "unknown"
	}
}

// ParseCadence maps a stored delivery-days string to its Cadence.
// Legacy records carry display names like "Alternate Days" or
// "Monday to Friday", so matching is case- and separator-insensitive.
func ParseCadence(s string) Cadence {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "daily":
		return CadenceDaily
	case "alternate_days", "alternate", "alternative_days":
		return CadenceAlternateDays
	case "mon_to_fri", "monday_to_friday", "weekdays":
		return CadenceMonToFri
	case "weekends", "weekend":
		return CadenceWeekends
	case "custom", "custom_date", "custom_dates":
		return CadenceCustomDates
	default:
		return CadenceUnknown
	}
}
