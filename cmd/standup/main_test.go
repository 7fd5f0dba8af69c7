package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ericksa/reclaimdigest/internal/digest"
	"github.com/ericksa/reclaimdigest/internal/reclaim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var generated = time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	err error
}

func strp(s string) *string { return &s }

func sampleViews() []digest.TaskView {
	return []digest.TaskView{
		{
			ID: "1", Title: "Steuererklärung", Priority: reclaim.P1, DueInfo: "08.07.",
			DurationText: strp("2h"), URL: "https://app.reclaim.ai/tasks/1",
		},
		{
			ID: "2", Title: "Angebot", Priority: reclaim.P2, DueInfo: "13.07.",
			ProgressText: strp("1h ⏳ 33% (30 min/1h 30min)"),
			NextEvent:    &digest.EventSummary{TimeUntil: "HEUTE in 1h"},
		},
	}
}

func (f *fakeSource) Daily(context.Context) (*digest.DailyDigest, error) {
	if f.err != nil {
		return nil, f.err
	}
	v := sampleViews()
	return &digest.DailyDigest{
		Counts:        digest.DailyCounts{Critical: 1, Medium: 7, Total: 8},
		TotalTimeText: "3h 30min",
		Critical:      digest.Section{Tasks: v[:1], Total: 1},
		Medium:        digest.Section{Tasks: v[1:], Total: 7, More: 6},
		GeneratedAt:   generated,
	}, nil
}

func (f *fakeSource) EmailSummary(context.Context) (*digest.EmailSummary, error) {
	v := sampleViews()
	return &digest.EmailSummary{
		Subject: "Reclaim: 1 überfällig, 1 gefährdet", OverdueCount: 1, AtRiskCount: 1, TotalCount: 2,
		Overdue: v[:1], AtRisk: v[1:], TotalTimeText: "3h 30min", GeneratedAt: generated,
	}, f.err
}

func (f *fakeSource) Upcoming(context.Context) (*digest.UpcomingDigest, error) {
	return &digest.UpcomingDigest{
		Count: 2, Tasks: sampleViews(),
		Counts:      digest.UpcomingCounts{Today: 1, Tomorrow: 0, ThisWeek: 2, Total: 5},
		GeneratedAt: generated,
	}, f.err
}

func runCmd(t *testing.T, src source, args ...string) (string, error) {
	t.Helper()
	prev := openSource
	openSource = func(*options) (source, error) { return src, nil }
	t.Cleanup(func() { openSource = prev })

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveOutput(t *testing.T) {
	cases := []struct {
		in, path, format string
	}{
		{"", "", formatConsole},
		{"console", "", formatConsole},
		{"JSON", "", formatJSON},
		{"yml", "", formatYAML},
		{"/tmp/r.json", "/tmp/r.json", formatJSON},
		{"r.yaml", "r.yaml", formatYAML},
		{"r.md", "r.md", formatMarkdown},
		{"r.txt", "r.txt", formatMarkdown},
		{"r.html", "r.html", formatHTML},
		{"whatever", "", formatConsole},
	}
	for _, tc := range cases {
		path, format := resolveOutput(tc.in)
		assert.Equal(t, tc.path, path, tc.in)
		assert.Equal(t, tc.format, format, tc.in)
	}
}

func TestDailyConsole(t *testing.T) {
	out, err := runCmd(t, &fakeSource{}, "daily")
	require.NoError(t, err)
	assert.Contains(t, out, "Steuererklärung")
	assert.Contains(t, out, "HEUTE in 1h")
	assert.Contains(t, out, "… und 6 weitere")
	assert.Contains(t, out, "Geschätzter Gesamtaufwand: 3h 30min")
}

func TestDailyJSON(t *testing.T) {
	out, err := runCmd(t, &fakeSource{}, "daily", "-o", "json")
	require.NoError(t, err)

	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Sections, 4)
	assert.Equal(t, "Kritisch", r.Sections[0].Heading)
	assert.Equal(t, "P1", r.Sections[0].Tasks[0].Priority)
	assert.Equal(t, 6, r.Sections[2].More)
	assert.Equal(t, "1h ⏳ 33% (30 min/1h 30min)", r.Sections[2].Tasks[0].Effort)
}

func TestUpcomingYAML(t *testing.T) {
	out, err := runCmd(t, &fakeSource{}, "upcoming", "--output", "yaml")
	require.NoError(t, err)

	var r report
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	assert.Equal(t, "Demnächst fällig", r.Title)
	assert.Equal(t, 3, r.Sections[0].More)
	assert.Equal(t, "2 von 5 angezeigt", r.Footer)
}

func TestSummaryFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"summary.md", "summary.html"} {
		path := filepath.Join(dir, name)
		out, err := runCmd(t, &fakeSource{}, "summary", "--output", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Report written to: "+path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Reclaim: 1 überfällig, 1 gefährdet")
		assert.Contains(t, string(data), "https://app.reclaim.ai/tasks/1")
	}
}

func TestCommandError(t *testing.T) {
	_, err := runCmd(t, &fakeSource{err: errors.New("upstream down")}, "daily")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}
