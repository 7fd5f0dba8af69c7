package digest

import "fmt"

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

// FormatDuration renders a fractional hour count as "45 min", "1h", "2h 30min",
// "1d", "1d 1h" or "1d 1h 15min". Minutes are truncated toward zero; negative
// input is not guarded and falls through to the minute form.
func FormatDuration(hours float64) string {
	if hours == 0 {
		return "0 min"
	}
	total := int(hours * minutesPerHour)

	switch {
	case total < minutesPerHour:
		return fmt.Sprintf("%d min", total)
	case total == minutesPerHour:
		return "1h"
	case total < minutesPerDay:
		h, m := total/minutesPerHour, total%minutesPerHour
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh %dmin", h, m)
	}

	days := total / minutesPerDay
	rest := total % minutesPerDay
	h, m := rest/minutesPerHour, rest%minutesPerHour
	switch {
	case h == 0 && m == 0:
		return fmt.Sprintf("%dd", days)
	case m == 0:
		return fmt.Sprintf("%dd %dh", days, h)
	default:
		return fmt.Sprintf("%dd %dh %dmin", days, h, m)
	}
}

// DurationText is FormatDuration for an optional value.
func DurationText(hours *float64) *string {
	if hours == nil {
		return nil
	}
	s := FormatDuration(*hours)
	return &s
}
