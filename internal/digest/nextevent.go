package digest

import (
	"fmt"
	"time"

	"github.com/ericksa/reclaimdigest/internal/reclaim"
)

// EventSummary describes the next scheduled event of a task.
type EventSummary struct {
	EventID       string   `json:"event_id"`
	Title         string   `json:"title"`
	Start         string   `json:"start"`
	End           *string  `json:"end"`
	DurationHours *float64 `json:"duration_hours"`
	TimeUntil     string   `json:"time_until"`
	LockState     string   `json:"lock_state,omitempty"`
	Defended      bool     `json:"defended"`
}

// NextEvent returns the soonest event of taskID that starts strictly after
// now, or nil. Events with equal start times keep their input order.
func NextEvent(taskID int64, events []reclaim.Event, now time.Time) *EventSummary {
	var next *reclaim.Event
	for i := range events {
		e := &events[i]
		if e.TaskID == nil || *e.TaskID != taskID || e.Start == nil || !e.Start.After(now) {
			continue
		}
		if next == nil || e.Start.Before(*next.Start) {
			next = e
		}
	}
	if next == nil {
		return nil
	}

	summary := &EventSummary{
		EventID:       next.ID,
		Title:         next.Title,
		Start:         next.Start.Format(time.RFC3339),
		DurationHours: next.DurationHours(),
		TimeUntil:     TimeUntil(*next.Start, now),
		LockState:     next.LockState,
		Defended:      next.Defended,
	}
	if next.End != nil {
		end := next.End.Format(time.RFC3339)
		summary.End = &end
	}
	return summary
}

// TimeUntil phrases the distance from now to start: "in 3 Tagen", "in 5h",
// "in 20min" or "jetzt", prefixed with "HEUTE " when start falls on the day
// of now.
func TimeUntil(start, now time.Time) string {
	delta := start.Sub(now)

	var phrase string
	switch {
	case floorDays(delta) > 0:
		phrase = fmt.Sprintf("in %d Tagen", floorDays(delta))
	case delta >= time.Hour:
		phrase = fmt.Sprintf("in %dh", int(delta/time.Hour))
	case delta >= time.Minute:
		phrase = fmt.Sprintf("in %dmin", int(delta/time.Minute))
	default:
		phrase = "jetzt"
	}

	if IsToday(start, now) {
		return "HEUTE " + phrase
	}
	return phrase
}

// IsToday reports whether t lies in [midnight, midnight+24h) of the day of
// now, in now's location.
func IsToday(t, now time.Time) bool {
	dayStart := StartOfDay(now)
	ts := t.UTC()
	return !ts.Before(dayStart) && ts.Before(dayStart.Add(24*time.Hour))
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
