package reclaim

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority is the upstream task priority. The zero value is an unknown priority
// and orders after P4.
type Priority uint8

const (
	PriorityUnknown Priority = iota
	P1
	P2
	P3
	P4
)

// Ordinal returns the sort rank of the priority: P1=1 .. P4=4, unknown=5.
func (p Priority) Ordinal() int {
	if p == PriorityUnknown || p > P4 {
		return 5
	}
	return int(p)
}

func (p Priority) String() string {
	switch p {
	case P1, P2, P3, P4:
		return fmt.Sprintf("P%d", p)
	default:
		return ""
	}
}

// ParsePriority accepts "P1".."P4" as well as the SDK's "TaskPriority.P1" form.
func ParsePriority(s string) Priority {
	s = strings.TrimPrefix(strings.TrimSpace(s), "TaskPriority.")
	switch strings.ToUpper(s) {
	case "P1":
		return P1
	case "P2":
		return P2
	case "P3":
		return P3
	case "P4":
		return P4
	default:
		return PriorityUnknown
	}
}

func (p Priority) MarshalJSON() ([]byte, error) {
	if p == PriorityUnknown {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

func (p *Priority) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("priority: %w", err)
	}
	if s == nil {
		*p = PriorityUnknown
		return nil
	}
	*p = ParsePriority(*s)
	return nil
}

// Status is the upstream task lifecycle state.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusNew
	StatusScheduled
	StatusInProgress
	StatusComplete
	StatusCancelled
	StatusArchived
)

var statusNames = map[Status]string{
	StatusNew:        "NEW",
	StatusScheduled:  "SCHEDULED",
	StatusInProgress: "IN_PROGRESS",
	StatusComplete:   "COMPLETE",
	StatusCancelled:  "CANCELLED",
	StatusArchived:   "ARCHIVED",
}

func (s Status) String() string {
	return statusNames[s]
}

// ParseStatus accepts the bare name as well as the SDK's "TaskStatus.NEW" form.
func ParseStatus(v string) Status {
	v = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(v), "TaskStatus."))
	for status, name := range statusNames {
		if name == v {
			return status
		}
	}
	return StatusUnknown
}

// Excluded reports whether tasks in this state are left out of every
// risk, overdue and urgency computation.
func (s Status) Excluded() bool {
	return s == StatusArchived || s == StatusCancelled
}

func (s Status) MarshalJSON() ([]byte, error) {
	if s == StatusUnknown {
		return []byte("null"), nil
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var v *string
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if v == nil {
		*s = StatusUnknown
		return nil
	}
	*s = ParseStatus(*v)
	return nil
}

// Task is a task record as returned by the task API. Optional fields are nil
// when the upstream omits them.
type Task struct {
	ID                  int64
	Title               string
	Notes               *string
	Priority            Priority
	Status              Status
	AtRisk              bool
	Due                 *time.Time
	Duration            *float64 // planned hours
	SnoozeUntil         *time.Time
	TimeChunksSpent     *int
	TimeChunksRemaining *int
}

type taskWire struct {
	ID                  int64    `json:"id"`
	Title               string   `json:"title"`
	Notes               *string  `json:"notes"`
	Priority            Priority `json:"priority"`
	Status              Status   `json:"status"`
	AtRisk              bool     `json:"atRisk"`
	Due                 *string  `json:"due"`
	TimeChunksRequired  *int     `json:"timeChunksRequired"`
	TimeChunksSpent     *int     `json:"timeChunksSpent"`
	TimeChunksRemaining *int     `json:"timeChunksRemaining"`
	SnoozeUntil         *string  `json:"snoozeUntil"`
}

func (t *Task) UnmarshalJSON(b []byte) error {
	var w taskWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	due, err := parseOptionalTime(w.Due)
	if err != nil {
		return fmt.Errorf("task %d due: %w", w.ID, err)
	}
	snooze, err := parseOptionalTime(w.SnoozeUntil)
	if err != nil {
		return fmt.Errorf("task %d snoozeUntil: %w", w.ID, err)
	}
	*t = Task{
		ID:                  w.ID,
		Title:               w.Title,
		Notes:               w.Notes,
		Priority:            w.Priority,
		Status:              w.Status,
		AtRisk:              w.AtRisk,
		Due:                 due,
		SnoozeUntil:         snooze,
		TimeChunksSpent:     w.TimeChunksSpent,
		TimeChunksRemaining: w.TimeChunksRemaining,
	}
	if w.TimeChunksRequired != nil {
		hours := float64(*w.TimeChunksRequired) / 4
		t.Duration = &hours
	}
	return nil
}

// Event is a calendar event, optionally scheduled on behalf of a task.
type Event struct {
	ID        string
	Title     string
	Start     *time.Time
	End       *time.Time
	TaskID    *int64
	LockState string
	Defended  bool
}

// DurationHours returns end-start in hours, or nil when either bound is missing.
func (e Event) DurationHours() *float64 {
	if e.Start == nil || e.End == nil {
		return nil
	}
	h := e.End.Sub(*e.Start).Hours()
	return &h
}

type assistWire struct {
	TaskID    *int64  `json:"taskId"`
	LockState *string `json:"lockState"`
	Defended  *bool   `json:"defended"`
}

type eventWire struct {
	EventID   string      `json:"eventId"`
	Title     string      `json:"title"`
	Start     *string     `json:"eventStart"`
	End       *string     `json:"eventEnd"`
	TaskID    *int64      `json:"taskId"`
	LockState *string     `json:"lockState"`
	Defended  *bool       `json:"defended"`
	Assist    *assistWire `json:"assist"`
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var w eventWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	start, err := parseOptionalTime(w.Start)
	if err != nil {
		return fmt.Errorf("event %s start: %w", w.EventID, err)
	}
	end, err := parseOptionalTime(w.End)
	if err != nil {
		return fmt.Errorf("event %s end: %w", w.EventID, err)
	}
	*e = Event{
		ID:     w.EventID,
		Title:  w.Title,
		Start:  start,
		End:    end,
		TaskID: w.TaskID,
	}
	if w.LockState != nil {
		e.LockState = *w.LockState
	}
	if w.Defended != nil {
		e.Defended = *w.Defended
	}
	// assist-level fields win over the flattened ones
	if a := w.Assist; a != nil {
		if a.TaskID != nil {
			e.TaskID = a.TaskID
		}
		if a.LockState != nil {
			e.LockState = *a.LockState
		}
		if a.Defended != nil {
			e.Defended = *a.Defended
		}
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseTime parses an upstream timestamp. Zone-less values are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
