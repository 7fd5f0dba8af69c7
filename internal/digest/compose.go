package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ericksa/reclaimdigest/internal/reclaim"
)

// Options tunes the composer output.
type Options struct {
	// Location is the zone dates are rendered in and "today" is anchored to.
	Location *time.Location
	// AppURL is the base of the task detail links, e.g. https://app.reclaim.ai.
	AppURL string
	// SectionLimit caps the medium and low sections of the daily digest.
	SectionLimit int
	// UpcomingLimit caps the upcoming list.
	UpcomingLimit int
	// ResolveNextEvents enables the per-task next event lookups.
	ResolveNextEvents bool
}

// Composer builds every response payload from the provider's tasks. It holds
// no state between calls; each call reads the clock once.
type Composer struct {
	provider Provider
	resolver *Resolver
	opts     Options
	now      func() time.Time
	logger   *slog.Logger
}

func NewComposer(provider Provider, resolver *Resolver, opts Options, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SectionLimit <= 0 {
		opts.SectionLimit = 5
	}
	if opts.UpcomingLimit <= 0 {
		opts.UpcomingLimit = 20
	}
	opts.AppURL = strings.TrimRight(opts.AppURL, "/")
	return &Composer{
		provider: provider,
		resolver: resolver,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the wall clock.
func (c *Composer) WithClock(now func() time.Time) *Composer {
	c.now = now
	return c
}

// TaskView is a task enriched with its formatted fields.
type TaskView struct {
	ID                  string           `json:"id"`
	Title               string           `json:"title"`
	Notes               *string          `json:"notes"`
	Priority            reclaim.Priority `json:"priority"`
	Status              reclaim.Status   `json:"status"`
	AtRisk              bool             `json:"at_risk"`
	Due                 *time.Time       `json:"due"`
	Duration            *float64         `json:"duration"`
	DurationText        *string          `json:"duration_text"`
	TimeChunksSpent     *int             `json:"time_chunks_spent,omitempty"`
	TimeChunksRemaining *int             `json:"time_chunks_remaining,omitempty"`
	ProgressText        *string          `json:"progress_text"`
	SnoozeUntil         *time.Time       `json:"snooze_until,omitempty"`
	DueInfo             string           `json:"due_info"`
	SnoozeText          *string          `json:"snooze_text,omitempty"`
	NextEvent           *EventSummary    `json:"next_event,omitempty"`
	URL                 string           `json:"url"`
}

// Effort is the progress text, falling back to the planned duration.
func (v TaskView) Effort() string {
	switch {
	case v.ProgressText != nil:
		return *v.ProgressText
	case v.DurationText != nil:
		return *v.DurationText
	default:
		return "–"
	}
}

// FilterInfo reports which exclusions a filtered list applied.
type FilterInfo struct {
	ExcludedArchived  bool       `json:"excluded_archived"`
	ExcludedCancelled bool       `json:"excluded_cancelled"`
	Description       string     `json:"description"`
	ReferenceTime     *time.Time `json:"reference_time,omitempty"`
}

// FilteredList is a pre-filtered, priority-sorted subset of tasks.
type FilteredList struct {
	Count      int        `json:"count"`
	Tasks      []TaskView `json:"tasks"`
	FilterInfo FilterInfo `json:"filter_info"`
}

// Section is one capped group of a digest.
type Section struct {
	Tasks []TaskView `json:"tasks"`
	Total int        `json:"total"`
	More  int        `json:"more"`
}

// EmailSummary is the overdue / at-risk mail body in text and HTML.
type EmailSummary struct {
	Subject        string     `json:"subject"`
	OverdueCount   int        `json:"overdue_count"`
	AtRiskCount    int        `json:"at_risk_count"`
	TotalCount     int        `json:"total_count"`
	TotalTimeHours float64    `json:"total_time_hours"`
	TotalTimeText  string     `json:"total_time_text"`
	Overdue        []TaskView `json:"overdue"`
	AtRisk         []TaskView `json:"at_risk"`
	TextBody       string     `json:"text_body"`
	HTMLBody       string     `json:"html_body"`
	GeneratedAt    time.Time  `json:"generated_at"`
}

// DailyCounts are the bucket sizes of the daily digest.
type DailyCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// DailyDigest is the urgency-bucketed daily view.
type DailyDigest struct {
	Date           string      `json:"date"`
	Counts         DailyCounts `json:"counts"`
	TotalTimeHours float64     `json:"total_time_hours"`
	TotalTimeText  string      `json:"total_time_text"`
	Critical       Section     `json:"critical"`
	High           Section     `json:"high"`
	Medium         Section     `json:"medium"`
	Low            Section     `json:"low"`
	TextBody       string      `json:"text_body"`
	HTMLBody       string      `json:"html_body"`
	GeneratedAt    time.Time   `json:"generated_at"`
}

// UpcomingCounts break future-due tasks down by calendar day distance.
type UpcomingCounts struct {
	Today    int `json:"today"`
	Tomorrow int `json:"tomorrow"`
	ThisWeek int `json:"this_week"`
	Total    int `json:"total"`
}

// UpcomingDigest lists the next due tasks.
type UpcomingDigest struct {
	Count       int            `json:"count"`
	Tasks       []TaskView     `json:"tasks"`
	Counts      UpcomingCounts `json:"counts"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Tasks returns every task, enriched.
func (c *Composer) Tasks(ctx context.Context) ([]TaskView, error) {
	tasks, err := c.provider.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	now := c.clock()
	return c.views(ctx, tasks, now), nil
}

// ErrTaskNotFound is returned by Task when no listed task has the id.
var ErrTaskNotFound = errors.New("task not found")

// Task returns the single task with the given id, enriched with its next
// event. Ids that are not integers are reported as not found.
func (c *Composer) Task(ctx context.Context, id string) (*TaskView, error) {
	want, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, ErrTaskNotFound
	}
	tasks, err := c.provider.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.ID != want {
			continue
		}
		now := c.clock()
		one := []reclaim.Task{t}
		v := c.view(t, now, c.resolveNext(ctx, one, now))
		return &v, nil
	}
	return nil, ErrTaskNotFound
}

// AtRisk returns the at-risk tasks, excluding archived and cancelled ones.
func (c *Composer) AtRisk(ctx context.Context) (*FilteredList, error) {
	tasks, err := c.provider.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	now := c.clock()

	var selected []reclaim.Task
	for _, t := range tasks {
		if IsAtRisk(t) {
			selected = append(selected, t)
		}
	}
	SortByPriority(selected)

	views := c.views(ctx, selected, now)
	return &FilteredList{
		Count: len(views),
		Tasks: views,
		FilterInfo: FilterInfo{
			ExcludedArchived:  true,
			ExcludedCancelled: true,
			Description:       "Archivierte und abgebrochene Tasks werden aus der Risiko-Berechnung ausgeschlossen",
		},
	}, nil
}

// Overdue returns the tasks due before now, excluding archived and cancelled
// ones.
func (c *Composer) Overdue(ctx context.Context) (*FilteredList, error) {
	tasks, err := c.provider.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	now := c.clock()

	var selected []reclaim.Task
	for _, t := range tasks {
		if IsOverdue(t, now) {
			selected = append(selected, t)
		}
	}
	SortByPriority(selected)

	views := c.views(ctx, selected, now)
	ref := now
	return &FilteredList{
		Count: len(views),
		Tasks: views,
		FilterInfo: FilterInfo{
			ExcludedArchived:  true,
			ExcludedCancelled: true,
			Description:       "Überfällige Tasks (Fälligkeit vor dem Abrufzeitpunkt), ohne archivierte und abgebrochene",
			ReferenceTime:     &ref,
		},
	}, nil
}

// EmailSummary composes the overdue and at-risk mail.
func (c *Composer) EmailSummary(ctx context.Context) (*EmailSummary, error) {
	tasks, err := c.provider.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	now := c.clock()
	cls := Classify(tasks, now)

	next := c.resolveNext(ctx, append(append([]reclaim.Task{}, cls.Overdue...), cls.AtRisk...), now)
	s := &EmailSummary{
		Subject:        fmt.Sprintf("Reclaim: %d überfällig, %d gefährdet", len(cls.Overdue), len(cls.AtRisk)),
		OverdueCount:   len(cls.Overdue),
		AtRiskCount:    len(cls.AtRisk),
		TotalCount:     cls.Count(),
		TotalTimeHours: cls.TotalHours,
		TotalTimeText:  FormatDuration(cls.TotalHours),
		Overdue:        c.viewsWith(cls.Overdue, now, next),
		AtRisk:         c.viewsWith(cls.AtRisk, now, next),
		GeneratedAt:    now,
	}

	r := report{
		Title: "Reclaim Aufgaben-Übersicht " + now.Format("02.01.2006"),
		Sections: []reportSection{
			newReportSection("🔴", "Überfällig", s.Overdue, len(s.Overdue), "Keine überfälligen Aufgaben."),
			newReportSection("🟡", "Gefährdet", s.AtRisk, len(s.AtRisk), "Keine gefährdeten Aufgaben."),
		},
		Footer: "Geschätzter Gesamtaufwand: " + s.TotalTimeText,
	}
	if s.TextBody, s.HTMLBody, err = renderReport(r); err != nil {
		return nil, err
	}
	return s, nil
}

// Daily composes the urgency-bucketed digest.
func (c *Composer) Daily(ctx context.Context) (*DailyDigest, error) {
	tasks, err := c.provider.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	now := c.clock()
	cls := Classify(tasks, now)
	next := c.resolveNext(ctx, append(append([]reclaim.Task{}, cls.Overdue...), cls.AtRisk...), now)

	d := &DailyDigest{
		Date: now.Format("2006-01-02"),
		Counts: DailyCounts{
			Critical: len(cls.Critical),
			High:     len(cls.High),
			Medium:   len(cls.Medium),
			Low:      len(cls.Low),
			Total:    cls.Count(),
		},
		TotalTimeHours: cls.TotalHours,
		TotalTimeText:  FormatDuration(cls.TotalHours),
		Critical:       c.section(cls.Critical, 0, now, next),
		High:           c.section(cls.High, 0, now, next),
		Medium:         c.section(cls.Medium, c.opts.SectionLimit, now, next),
		Low:            c.section(cls.Low, c.opts.SectionLimit, now, next),
		GeneratedAt:    now,
	}

	r := report{
		Title: "Tagesübersicht " + now.Format("02.01.2006"),
		Sections: []reportSection{
			d.Critical.report("🚨", "Kritisch", "Keine kritischen Aufgaben."),
			d.High.report("🔴", "Hoch", "Keine Aufgaben mit hoher Dringlichkeit."),
			d.Medium.report("🟡", "Mittel", "Keine Aufgaben mit mittlerer Dringlichkeit."),
			d.Low.report("🟢", "Niedrig", "Keine Aufgaben mit niedriger Dringlichkeit."),
		},
		Footer: fmt.Sprintf("%d Aufgaben, geschätzter Gesamtaufwand: %s", d.Counts.Total, d.TotalTimeText),
	}
	if d.TextBody, d.HTMLBody, err = renderReport(r); err != nil {
		return nil, err
	}
	return d, nil
}

// Upcoming lists the next future-due open tasks with today / tomorrow /
// this-week counts over all of them.
func (c *Composer) Upcoming(ctx context.Context) (*UpcomingDigest, error) {
	tasks, err := c.provider.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	now := c.clock()

	var future []reclaim.Task
	var counts UpcomingCounts
	for _, t := range tasks {
		if t.Status.Excluded() || t.Status == reclaim.StatusComplete || t.Due == nil || t.Due.Before(now) {
			continue
		}
		future = append(future, t)
		switch delta := CalendarDaysBetween(now, *t.Due); {
		case delta == 0:
			counts.Today++
			counts.ThisWeek++
		case delta == 1:
			counts.Tomorrow++
			counts.ThisWeek++
		case delta < 7:
			counts.ThisWeek++
		}
	}
	counts.Total = len(future)

	SortByDue(future)
	if len(future) > c.opts.UpcomingLimit {
		future = future[:c.opts.UpcomingLimit]
	}
	views := c.views(ctx, future, now)
	return &UpcomingDigest{
		Count:       len(views),
		Tasks:       views,
		Counts:      counts,
		GeneratedAt: now,
	}, nil
}

// CalendarDaysBetween returns the number of calendar days from now's day to
// t's day, both taken in now's location.
func CalendarDaysBetween(now, t time.Time) int {
	from := StartOfDay(now)
	to := StartOfDay(t.In(now.Location()))
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func (c *Composer) clock() time.Time {
	return c.now().In(c.opts.Location)
}

func (c *Composer) views(ctx context.Context, tasks []reclaim.Task, now time.Time) []TaskView {
	return c.viewsWith(tasks, now, c.resolveNext(ctx, tasks, now))
}

func (c *Composer) viewsWith(tasks []reclaim.Task, now time.Time, next map[int64]NextEventResult) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, c.view(t, now, next))
	}
	return views
}

func (c *Composer) resolveNext(ctx context.Context, tasks []reclaim.Task, now time.Time) map[int64]NextEventResult {
	if !c.opts.ResolveNextEvents || c.resolver == nil || len(tasks) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return c.resolver.ResolveAll(ctx, ids, now)
}

func (c *Composer) view(t reclaim.Task, now time.Time, next map[int64]NextEventResult) TaskView {
	v := TaskView{
		ID:                  strconv.FormatInt(t.ID, 10),
		Title:               t.Title,
		Notes:               t.Notes,
		Priority:            t.Priority,
		Status:              t.Status,
		AtRisk:              t.AtRisk,
		Due:                 t.Due,
		Duration:            t.Duration,
		DurationText:        DurationText(t.Duration),
		TimeChunksSpent:     t.TimeChunksSpent,
		TimeChunksRemaining: t.TimeChunksRemaining,
		ProgressText:        ProgressText(t.TimeChunksSpent, t.TimeChunksRemaining),
		SnoozeUntil:         t.SnoozeUntil,
		DueInfo:             FormatDueInfo(c.local(t.Due), c.local(t.SnoozeUntil)),
		URL:                 c.taskURL(t.ID),
	}
	if s, ok := FormatSnoozeDays(t.SnoozeUntil, now); ok {
		v.SnoozeText = &s
	}
	if res, ok := next[t.ID]; ok && !res.Degraded {
		v.NextEvent = res.Event
	}
	return v
}

func (c *Composer) section(tasks []reclaim.Task, limit int, now time.Time, next map[int64]NextEventResult) Section {
	s := Section{Total: len(tasks)}
	shown := tasks
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
		s.More = len(tasks) - limit
	}
	s.Tasks = c.viewsWith(shown, now, next)
	return s
}

func (s Section) report(icon, heading, empty string) reportSection {
	return newReportSection(icon, heading, s.Tasks, s.Total, empty).withMore(s.More)
}

func (c *Composer) local(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	l := t.In(c.opts.Location)
	return &l
}

func (c *Composer) taskURL(id int64) string {
	if c.opts.AppURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/tasks/%d", c.opts.AppURL, id)
}
