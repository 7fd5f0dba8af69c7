package digest

import (
	"fmt"
	"math"
	"time"
)

const dayMonthLayout = "02.01."

// floorDays returns the whole number of days in d, rounded toward negative
// infinity, so that one hour in the past is already day -1.
func floorDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

// FormatDate renders a timestamp as day and month, e.g. "15.01.".
func FormatDate(t time.Time) string {
	return t.Format(dayMonthLayout)
}

// FormatDueInfo combines a due date and an optional snooze date into one line:
// "15.01.", "15.01. → 18.01. (+3 Tage)", "15.01. → 13.01. (2 Tage früher)" or
// "15.01. → 15.01. (gleicher Tag)". Both times are rendered in their own
// location.
func FormatDueInfo(due, snoozeUntil *time.Time) string {
	if due == nil {
		return "Kein Datum"
	}
	if snoozeUntil == nil {
		return FormatDate(*due)
	}

	prefix := FormatDate(*due) + " → " + FormatDate(*snoozeUntil)
	diff := floorDays(snoozeUntil.Sub(*due))
	switch {
	case diff > 0:
		return fmt.Sprintf("%s (+%d Tage)", prefix, diff)
	case diff < 0:
		return fmt.Sprintf("%s (%d Tage früher)", prefix, -diff)
	default:
		return prefix + " (gleicher Tag)"
	}
}

// FormatSnoozeDays describes how far a snooze date lies from now:
// "+3 Tage", "2 Tage überfällig" or "heute". It reports false without a
// snooze date.
func FormatSnoozeDays(snoozeUntil *time.Time, now time.Time) (string, bool) {
	if snoozeUntil == nil {
		return "", false
	}
	diff := floorDays(snoozeUntil.Sub(now))
	switch {
	case diff > 0:
		return fmt.Sprintf("+%d Tage", diff), true
	case diff < 0:
		return fmt.Sprintf("%d Tage überfällig", -diff), true
	default:
		return "heute", true
	}
}
