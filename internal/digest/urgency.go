package digest

import (
	"sort"
	"time"

	"github.com/ericksa/reclaimdigest/internal/reclaim"
)

// Urgency is one of the daily digest buckets.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// IsOverdue reports whether a non-archived, non-cancelled task is past due.
func IsOverdue(t reclaim.Task, now time.Time) bool {
	return !t.Status.Excluded() && t.Due != nil && t.Due.Before(now)
}

// IsAtRisk reports whether a non-archived, non-cancelled task carries the
// at-risk flag, overdue or not.
func IsAtRisk(t reclaim.Task) bool {
	return !t.Status.Excluded() && t.AtRisk
}

// IsAtRiskNotOverdue reports whether a task is at risk but not yet past due.
func IsAtRiskNotOverdue(t reclaim.Task, now time.Time) bool {
	return IsAtRisk(t) && (t.Due == nil || !t.Due.Before(now))
}

// UrgencyOf returns the bucket of a task, or false when the task is neither
// overdue nor at risk. Unknown priorities land in the low bucket when at risk.
func UrgencyOf(t reclaim.Task, now time.Time) (Urgency, bool) {
	switch {
	case IsOverdue(t, now):
		if t.Priority == reclaim.P1 {
			return UrgencyCritical, true
		}
		return UrgencyHigh, true
	case IsAtRiskNotOverdue(t, now):
		switch t.Priority {
		case reclaim.P1:
			return UrgencyHigh, true
		case reclaim.P2:
			return UrgencyMedium, true
		default:
			return UrgencyLow, true
		}
	}
	return "", false
}

// Classification is the urgency partition of a task list.
type Classification struct {
	Overdue []reclaim.Task
	AtRisk  []reclaim.Task // at risk and not overdue

	Critical []reclaim.Task
	High     []reclaim.Task
	Medium   []reclaim.Task
	Low      []reclaim.Task

	// TotalHours sums planned durations over Overdue and AtRisk.
	TotalHours float64
}

// Count returns the number of classified tasks.
func (c Classification) Count() int {
	return len(c.Overdue) + len(c.AtRisk)
}

// Classify partitions tasks into overdue / at-risk and the four urgency
// buckets. Every slice is sorted by SortByPriority.
func Classify(tasks []reclaim.Task, now time.Time) Classification {
	var c Classification
	for _, t := range tasks {
		urgency, ok := UrgencyOf(t, now)
		if !ok {
			continue
		}
		if IsOverdue(t, now) {
			c.Overdue = append(c.Overdue, t)
		} else {
			c.AtRisk = append(c.AtRisk, t)
		}
		if t.Duration != nil {
			c.TotalHours += *t.Duration
		}

		switch urgency {
		case UrgencyCritical:
			c.Critical = append(c.Critical, t)
		case UrgencyHigh:
			c.High = append(c.High, t)
		case UrgencyMedium:
			c.Medium = append(c.Medium, t)
		case UrgencyLow:
			c.Low = append(c.Low, t)
		}
	}

	for _, bucket := range [][]reclaim.Task{c.Overdue, c.AtRisk, c.Critical, c.High, c.Medium, c.Low} {
		SortByPriority(bucket)
	}
	return c
}

// SortByPriority orders tasks by priority (P1 first, unknown last), then by
// due date with undated tasks last. Ties keep their input order.
func SortByPriority(tasks []reclaim.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Priority.Ordinal() != b.Priority.Ordinal() {
			return a.Priority.Ordinal() < b.Priority.Ordinal()
		}
		return dueBefore(a.Due, b.Due)
	})
}

// SortByDue orders tasks by due date, undated last.
func SortByDue(tasks []reclaim.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return dueBefore(tasks[i].Due, tasks[j].Due)
	})
}

func dueBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}
