package reclaim

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input    string
		expected Priority
	}{
		{"P1", P1},
		{"p2", P2},
		{"TaskPriority.P3", P3},
		{"P4", P4},
		{"P9", PriorityUnknown},
		{"", PriorityUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParsePriority(tt.input), tt.input)
	}
}

func TestPriorityOrdinal(t *testing.T) {
	assert.Less(t, P1.Ordinal(), P2.Ordinal())
	assert.Less(t, P4.Ordinal(), PriorityUnknown.Ordinal())
	assert.Equal(t, 5, PriorityUnknown.Ordinal())
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusInProgress, ParseStatus("IN_PROGRESS"))
	assert.Equal(t, StatusArchived, ParseStatus("TaskStatus.ARCHIVED"))
	assert.Equal(t, StatusUnknown, ParseStatus("DELETED"))
	assert.True(t, StatusCancelled.Excluded())
	assert.True(t, StatusArchived.Excluded())
	assert.False(t, StatusComplete.Excluded())
}

func TestTaskUnmarshal(t *testing.T) {
	input := `{
		"id": 9453408,
		"title": "Keller aufräumen",
		"notes": "Kisten sortieren",
		"priority": "P2",
		"status": "IN_PROGRESS",
		"atRisk": true,
		"due": "2025-01-15T10:00:00Z",
		"timeChunksRequired": 10,
		"timeChunksSpent": 4,
		"timeChunksRemaining": 6,
		"snoozeUntil": "2025-01-12T08:00:00+01:00"
	}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(input), &task))

	assert.Equal(t, int64(9453408), task.ID)
	assert.Equal(t, "Keller aufräumen", task.Title)
	require.NotNil(t, task.Notes)
	assert.Equal(t, "Kisten sortieren", *task.Notes)
	assert.Equal(t, P2, task.Priority)
	assert.Equal(t, StatusInProgress, task.Status)
	assert.True(t, task.AtRisk)
	require.NotNil(t, task.Due)
	assert.True(t, task.Due.Equal(time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)))
	require.NotNil(t, task.Duration)
	assert.Equal(t, 2.5, *task.Duration)
	require.NotNil(t, task.SnoozeUntil)
	assert.True(t, task.SnoozeUntil.Equal(time.Date(2025, 1, 12, 7, 0, 0, 0, time.UTC)))
	assert.Equal(t, 4, *task.TimeChunksSpent)
	assert.Equal(t, 6, *task.TimeChunksRemaining)
}

func TestTaskUnmarshal_OptionalFieldsMissing(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "title": "x", "priority": null}`), &task))

	assert.Nil(t, task.Due)
	assert.Nil(t, task.Duration)
	assert.Nil(t, task.SnoozeUntil)
	assert.Nil(t, task.TimeChunksSpent)
	assert.Equal(t, PriorityUnknown, task.Priority)
	assert.Equal(t, StatusUnknown, task.Status)
}

func TestTaskUnmarshal_BadTimestamp(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"id": 7, "due": "next tuesday"}`), &task)
	assert.Error(t, err)
}

func TestEventUnmarshal_AssistFields(t *testing.T) {
	input := `{
		"eventId": "abc123",
		"title": "Keller aufräumen",
		"eventStart": "2025-07-10T08:00:00+02:00",
		"eventEnd": "2025-07-10T09:30:00+02:00",
		"assist": {"taskId": 10614949, "lockState": "LOCKED", "defended": true}
	}`

	var event Event
	require.NoError(t, json.Unmarshal([]byte(input), &event))

	assert.Equal(t, "abc123", event.ID)
	require.NotNil(t, event.TaskID)
	assert.Equal(t, int64(10614949), *event.TaskID)
	assert.Equal(t, "LOCKED", event.LockState)
	assert.True(t, event.Defended)
	require.NotNil(t, event.DurationHours())
	assert.Equal(t, 1.5, *event.DurationHours())
}

func TestEventUnmarshal_FlatTaskID(t *testing.T) {
	var event Event
	require.NoError(t, json.Unmarshal([]byte(`{"eventId": "e1", "taskId": 42, "eventStart": "2025-07-10T08:00:00"}`), &event))

	require.NotNil(t, event.TaskID)
	assert.Equal(t, int64(42), *event.TaskID)
	assert.Nil(t, event.DurationHours())
	assert.Equal(t, time.UTC, event.Start.Location())
}

func TestPriorityAndStatusMarshal(t *testing.T) {
	b, err := json.Marshal(struct {
		P Priority `json:"p"`
		S Status   `json:"s"`
		U Priority `json:"u"`
	}{P1, StatusScheduled, PriorityUnknown})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"P1","s":"SCHEDULED","u":null}`, string(b))
}
