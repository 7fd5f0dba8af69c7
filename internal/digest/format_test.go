package digest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intp(v int) *int { return &v }

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{0, "0 min"},
		{0.25, "15 min"},
		{0.75, "45 min"},
		{1, "1h"},
		{2, "2h"},
		{2.5, "2h 30min"},
		{23.75, "23h 45min"},
		{24, "1d"},
		{25, "1d 1h"},
		{25.25, "1d 1h 15min"},
		{24.5, "1d 0h 30min"},
		{48, "2d"},
		{-0.5, "-30 min"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDuration(tc.hours), "hours=%v", tc.hours)
	}
}

func TestFormatDuration_Truncates(t *testing.T) {
	// 0.999 h = 59.94 min
	assert.Equal(t, "59 min", FormatDuration(0.999))
}

func TestDurationText(t *testing.T) {
	assert.Nil(t, DurationText(nil))
	h := 1.5
	assert.Equal(t, "1h 30min", *DurationText(&h))
}

func TestFormatProgress(t *testing.T) {
	_, ok := FormatProgress(nil, intp(4))
	assert.False(t, ok)
	_, ok = FormatProgress(intp(4), nil)
	assert.False(t, ok)
	_, ok = FormatProgress(intp(0), intp(0))
	assert.False(t, ok)

	s, ok := FormatProgress(intp(4), intp(0))
	assert.True(t, ok)
	assert.Equal(t, "✅ (4 Sessions)", s)

	s, _ = FormatProgress(intp(0), intp(4))
	assert.Equal(t, "1h ⏳ (4 Sessions)", s)

	s, _ = FormatProgress(intp(0), intp(1))
	assert.Equal(t, "15 min ⏳", s)

	s, _ = FormatProgress(intp(2), intp(2))
	assert.Equal(t, "30 min ⏳ 50% (30 min/1h)", s)

	s, _ = FormatProgress(intp(1), intp(2))
	assert.Equal(t, "30 min ⏳ 33% (15 min/45 min)", s)
}

func TestProgressText(t *testing.T) {
	assert.Nil(t, ProgressText(intp(0), intp(0)))
	assert.Equal(t, "✅ (8 Sessions)", *ProgressText(intp(8), intp(0)))
}

func TestFormatDueInfo(t *testing.T) {
	due := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	later := time.Date(2025, 1, 18, 10, 0, 0, 0, time.UTC)
	earlier := time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC)
	sameDay := time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, "Kein Datum", FormatDueInfo(nil, &later))
	assert.Equal(t, "15.01.", FormatDueInfo(&due, nil))
	assert.Equal(t, "15.01. → 18.01. (+3 Tage)", FormatDueInfo(&due, &later))
	assert.Equal(t, "15.01. → 13.01. (2 Tage früher)", FormatDueInfo(&due, &earlier))
	assert.Equal(t, "15.01. → 15.01. (gleicher Tag)", FormatDueInfo(&due, &sameDay))
}

func TestFormatDueInfo_FloorsNegativeDeltas(t *testing.T) {
	due := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	snooze := due.Add(-time.Hour)
	assert.Equal(t, "15.01. → 15.01. (1 Tage früher)", FormatDueInfo(&due, &snooze))
}

func TestFormatSnoozeDays(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	_, ok := FormatSnoozeDays(nil, now)
	assert.False(t, ok)

	future := now.Add(3*24*time.Hour + time.Hour)
	s, ok := FormatSnoozeDays(&future, now)
	assert.True(t, ok)
	assert.Equal(t, "+3 Tage", s)

	past := now.Add(-2 * 24 * time.Hour)
	s, _ = FormatSnoozeDays(&past, now)
	assert.Equal(t, "2 Tage überfällig", s)

	soon := now.Add(2 * time.Hour)
	s, _ = FormatSnoozeDays(&soon, now)
	assert.Equal(t, "heute", s)
}
