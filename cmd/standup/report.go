package main

import (
	"fmt"
	"time"

	"github.com/ericksa/reclaimdigest/internal/digest"
	"github.com/ericksa/reclaimdigest/internal/reclaim"
)

// report is the format-neutral shape every output renders.
type report struct {
	Title       string    `json:"title" yaml:"title"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Counts      []count   `json:"counts" yaml:"counts"`
	Sections    []section `json:"sections" yaml:"sections"`
	Footer      string    `json:"footer,omitempty" yaml:"footer,omitempty"`
}

type count struct {
	Label string `json:"label" yaml:"label"`
	Value int    `json:"value" yaml:"value"`
}

type section struct {
	Icon    string     `json:"icon" yaml:"icon"`
	Heading string     `json:"heading" yaml:"heading"`
	Total   int        `json:"total" yaml:"total"`
	More    int        `json:"more,omitempty" yaml:"more,omitempty"`
	Tasks   []taskLine `json:"tasks" yaml:"tasks"`
}

type taskLine struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Priority  string `json:"priority,omitempty" yaml:"priority,omitempty"`
	DueInfo   string `json:"due_info" yaml:"due_info"`
	Effort    string `json:"effort" yaml:"effort"`
	NextEvent string `json:"next_event,omitempty" yaml:"next_event,omitempty"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
}

func lines(views []digest.TaskView) []taskLine {
	out := make([]taskLine, 0, len(views))
	for _, v := range views {
		l := taskLine{
			ID:      v.ID,
			Title:   v.Title,
			DueInfo: v.DueInfo,
			Effort:  v.Effort(),
			URL:     v.URL,
		}
		if v.Priority != reclaim.PriorityUnknown {
			l.Priority = v.Priority.String()
		}
		if v.NextEvent != nil {
			l.NextEvent = v.NextEvent.TimeUntil
		}
		out = append(out, l)
	}
	return out
}

func fromSection(icon, heading string, s digest.Section) section {
	return section{Icon: icon, Heading: heading, Total: s.Total, More: s.More, Tasks: lines(s.Tasks)}
}

func dailyReport(d *digest.DailyDigest) *report {
	return &report{
		Title:       "Tagesübersicht " + d.GeneratedAt.Format("02.01.2006"),
		GeneratedAt: d.GeneratedAt,
		Counts: []count{
			{"Kritisch", d.Counts.Critical},
			{"Hoch", d.Counts.High},
			{"Mittel", d.Counts.Medium},
			{"Niedrig", d.Counts.Low},
			{"Gesamt", d.Counts.Total},
		},
		Sections: []section{
			fromSection("🚨", "Kritisch", d.Critical),
			fromSection("🔴", "Hoch", d.High),
			fromSection("🟡", "Mittel", d.Medium),
			fromSection("🟢", "Niedrig", d.Low),
		},
		Footer: "Geschätzter Gesamtaufwand: " + d.TotalTimeText,
	}
}

func summaryReport(e *digest.EmailSummary) *report {
	return &report{
		Title:       e.Subject,
		GeneratedAt: e.GeneratedAt,
		Counts: []count{
			{"Überfällig", e.OverdueCount},
			{"Gefährdet", e.AtRiskCount},
			{"Gesamt", e.TotalCount},
		},
		Sections: []section{
			{Icon: "🔴", Heading: "Überfällig", Total: len(e.Overdue), Tasks: lines(e.Overdue)},
			{Icon: "🟡", Heading: "Gefährdet", Total: len(e.AtRisk), Tasks: lines(e.AtRisk)},
		},
		Footer: "Geschätzter Gesamtaufwand: " + e.TotalTimeText,
	}
}

func upcomingReport(u *digest.UpcomingDigest) *report {
	r := &report{
		Title:       "Demnächst fällig",
		GeneratedAt: u.GeneratedAt,
		Counts: []count{
			{"Heute", u.Counts.Today},
			{"Morgen", u.Counts.Tomorrow},
			{"Diese Woche", u.Counts.ThisWeek},
			{"Gesamt", u.Counts.Total},
		},
		Sections: []section{
			{Icon: "📅", Heading: "Nächste Aufgaben", Total: u.Counts.Total, Tasks: lines(u.Tasks)},
		},
	}
	if more := u.Counts.Total - u.Count; more > 0 {
		r.Sections[0].More = more
		r.Footer = fmt.Sprintf("%d von %d angezeigt", u.Count, u.Counts.Total)
	}
	return r
}
