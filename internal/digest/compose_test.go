package digest

import (
	"context"
	"testing"
	"time"

	"github.com/ericksa/reclaimdigest/internal/reclaim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestComposer(p *fakeProvider, opts Options) *Composer {
	opts.ResolveNextEvents = true
	if opts.AppURL == "" {
		opts.AppURL = "https://app.reclaim.ai/"
	}
	r := NewResolver(p, 30*24*time.Hour, 4, nil)
	return NewComposer(p, r, opts, nil).WithClock(func() time.Time { return refNow })
}

func scenarioTasks() []reclaim.Task {
	a := task(1, reclaim.P1, at(-48*time.Hour), false)
	a.Title = "Steuererklärung"
	a.Duration = hoursp(2.0)
	b := task(2, reclaim.P2, at(72*time.Hour), true)
	b.Title = "Angebot <Kunde>"
	b.Duration = hoursp(1.5)
	b.TimeChunksSpent, b.TimeChunksRemaining = intp(2), intp(4)
	archived := task(3, reclaim.P1, at(-time.Hour), true)
	archived.Status = reclaim.StatusArchived
	fine := task(4, reclaim.P3, at(24*time.Hour), false)
	return []reclaim.Task{a, b, archived, fine}
}

func TestComposer_Tasks(t *testing.T) {
	p := &fakeProvider{tasks: scenarioTasks()}
	views, err := newTestComposer(p, Options{}).Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 4)

	a := views[0]
	assert.Equal(t, "1", a.ID)
	assert.Equal(t, "08.07.", a.DueInfo)
	require.NotNil(t, a.DurationText)
	assert.Equal(t, "2h", *a.DurationText)
	assert.Nil(t, a.ProgressText)
	assert.Equal(t, "https://app.reclaim.ai/tasks/1", a.URL)

	b := views[1]
	require.NotNil(t, b.ProgressText)
	assert.Equal(t, "1h ⏳ 33% (30 min/1h 30min)", *b.ProgressText)
	assert.Equal(t, "1h ⏳ 33% (30 min/1h 30min)", b.Effort())
}

func TestComposer_Task(t *testing.T) {
	p := &fakeProvider{
		tasks: scenarioTasks(),
		events: map[int64][]reclaim.Event{
			2: {event("e2", 2, refNow.Add(90*time.Minute), time.Hour)},
		},
	}
	c := newTestComposer(p, Options{})

	v, err := c.Task(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "Angebot <Kunde>", v.Title)
	require.NotNil(t, v.NextEvent)
	assert.Equal(t, "HEUTE in 1h", v.NextEvent.TimeUntil)
	assert.Equal(t, int32(1), p.calls.Load())

	_, err = c.Task(context.Background(), "99")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = c.Task(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	p.tasksErr = errUpstream
	_, err = c.Task(context.Background(), "2")
	assert.ErrorIs(t, err, errUpstream)
}

func TestComposer_UpstreamError(t *testing.T) {
	p := &fakeProvider{tasksErr: errUpstream}
	c := newTestComposer(p, Options{})

	_, err := c.Tasks(context.Background())
	assert.ErrorIs(t, err, errUpstream)
	_, err = c.Daily(context.Background())
	assert.ErrorIs(t, err, errUpstream)
	_, err = c.Upcoming(context.Background())
	assert.ErrorIs(t, err, errUpstream)
}

func TestComposer_AtRiskAndOverdue(t *testing.T) {
	p := &fakeProvider{tasks: scenarioTasks()}
	c := newTestComposer(p, Options{})

	risk, err := c.AtRisk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, risk.Count)
	assert.Equal(t, "2", risk.Tasks[0].ID)
	assert.True(t, risk.FilterInfo.ExcludedArchived)
	assert.True(t, risk.FilterInfo.ExcludedCancelled)
	assert.Nil(t, risk.FilterInfo.ReferenceTime)

	overdue, err := c.Overdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, overdue.Count)
	assert.Equal(t, "1", overdue.Tasks[0].ID)
	require.NotNil(t, overdue.FilterInfo.ReferenceTime)
	assert.True(t, refNow.Equal(*overdue.FilterInfo.ReferenceTime))
}

func TestComposer_Daily(t *testing.T) {
	p := &fakeProvider{
		tasks: scenarioTasks(),
		events: map[int64][]reclaim.Event{
			2: {event("e2", 2, refNow.Add(90*time.Minute), time.Hour)},
		},
		failing: map[int64]error{1: errUpstream},
	}
	d, err := newTestComposer(p, Options{}).Daily(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DailyCounts{Critical: 1, Medium: 1, Total: 2}, d.Counts)
	assert.Equal(t, 3.5, d.TotalTimeHours)
	assert.Equal(t, "3h 30min", d.TotalTimeText)
	require.Len(t, d.Critical.Tasks, 1)
	assert.Equal(t, "1", d.Critical.Tasks[0].ID)
	assert.Nil(t, d.Critical.Tasks[0].NextEvent, "failed lookup degrades to no event")
	require.Len(t, d.Medium.Tasks, 1)
	require.NotNil(t, d.Medium.Tasks[0].NextEvent)
	assert.Equal(t, "HEUTE in 1h", d.Medium.Tasks[0].NextEvent.TimeUntil)

	assert.Contains(t, d.TextBody, "Steuererklärung [P1]")
	assert.Contains(t, d.TextBody, "Nächster Termin: HEUTE in 1h")
	assert.Contains(t, d.TextBody, "Keine Aufgaben mit hoher Dringlichkeit.")
	assert.Contains(t, d.HTMLBody, `<a href="https://app.reclaim.ai/tasks/1">Steuererklärung</a>`)
	assert.Contains(t, d.HTMLBody, "Angebot &lt;Kunde&gt;")
}

func TestComposer_DailyCapsSections(t *testing.T) {
	var tasks []reclaim.Task
	for i := int64(1); i <= 8; i++ {
		tasks = append(tasks, task(i, reclaim.P2, at(time.Duration(i)*time.Hour), true))
	}
	p := &fakeProvider{tasks: tasks}
	d, err := newTestComposer(p, Options{SectionLimit: 5}).Daily(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, d.Counts.Medium)
	assert.Equal(t, 8, d.Medium.Total)
	assert.Len(t, d.Medium.Tasks, 5)
	assert.Equal(t, 3, d.Medium.More)
	assert.Contains(t, d.TextBody, "… und 3 weitere")
	assert.Contains(t, d.HTMLBody, "… und 3 weitere")
}

func TestComposer_EmailSummary(t *testing.T) {
	p := &fakeProvider{tasks: scenarioTasks()}
	s, err := newTestComposer(p, Options{}).EmailSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Reclaim: 1 überfällig, 1 gefährdet", s.Subject)
	assert.Equal(t, 1, s.OverdueCount)
	assert.Equal(t, 1, s.AtRiskCount)
	assert.Equal(t, 2, s.TotalCount)
	assert.Equal(t, 3.5, s.TotalTimeHours)
	assert.Contains(t, s.TextBody, "Überfällig (1)")
	assert.Contains(t, s.TextBody, "Gefährdet (1)")
	assert.Contains(t, s.TextBody, "Geschätzter Gesamtaufwand: 3h 30min")
	assert.Contains(t, s.HTMLBody, "<h2>")
	assert.True(t, refNow.Equal(s.GeneratedAt))
}

func TestComposer_Upcoming(t *testing.T) {
	tasks := []reclaim.Task{
		task(1, reclaim.P1, at(10*time.Hour), false),  // today 19:00
		task(2, reclaim.P2, at(20*time.Hour), false),  // tomorrow 05:00
		task(3, reclaim.P3, at(4*24*time.Hour), true), // this week
		task(4, reclaim.P3, at(10*24*time.Hour), false),
		task(5, reclaim.P1, at(-time.Hour), false),
		task(6, reclaim.P1, nil, false),
	}
	done := task(7, reclaim.P1, at(time.Hour), false)
	done.Status = reclaim.StatusComplete
	tasks = append(tasks, done)

	p := &fakeProvider{tasks: tasks}
	u, err := newTestComposer(p, Options{UpcomingLimit: 2}).Upcoming(context.Background())
	require.NoError(t, err)

	assert.Equal(t, UpcomingCounts{Today: 1, Tomorrow: 1, ThisWeek: 3, Total: 4}, u.Counts)
	require.Equal(t, 2, u.Count)
	assert.Equal(t, "1", u.Tasks[0].ID)
	assert.Equal(t, "2", u.Tasks[1].ID)
}

func TestComposer_RendersInLocation(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)
	due := time.Date(2025, 7, 10, 23, 0, 0, 0, time.UTC)
	tk := task(1, reclaim.P1, &due, false)
	p := &fakeProvider{tasks: []reclaim.Task{tk}}

	views, err := newTestComposer(p, Options{Location: berlin}).Tasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "11.07.", views[0].DueInfo)
}

func TestCalendarDaysBetween(t *testing.T) {
	assert.Equal(t, 0, CalendarDaysBetween(refNow, refNow.Add(14*time.Hour)))
	assert.Equal(t, 1, CalendarDaysBetween(refNow, refNow.Add(15*time.Hour)))
	assert.Equal(t, -1, CalendarDaysBetween(refNow, refNow.Add(-10*time.Hour)))
}
