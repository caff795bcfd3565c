package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_Basics(t *testing.T) {
	before := time.Now().UTC()
	ev := NewHumanUpdate(7, "db is down")

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, int64(7), ev.IncidentID)
	assert.Equal(t, EventTypeHumanUpdate, ev.Type)
	assert.Equal(t, "db is down", ev.Payload["message"])
	assert.Equal(t, time.UTC, ev.CreatedAt.Location())
	assert.False(t, ev.CreatedAt.Before(before))

	other := NewHumanUpdate(7, "db is down")
	assert.NotEqual(t, ev.EventID, other.EventID)
}

func TestPayloadShapes(t *testing.T) {
	statusChange := NewStatusChange(1, StatusInvestigating, StatusMonitoring)
	assert.Equal(t, map[string]any{
		"from": "investigating",
		"to":   "monitoring",
	}, statusChange.Payload)

	tag := NewAITag(1, []string{"database", "latency"}, "src-1")
	assert.Equal(t, map[string]any{
		"tags":            []string{"database", "latency"},
		"source_event_id": "src-1",
	}, tag.Payload)

	summary := NewAISummary(1, "Summary: db is down", "src-1")
	assert.Equal(t, map[string]any{
		"summary":         "Summary: db is down",
		"source_event_id": "src-1",
	}, summary.Payload)

	system := NewSystemEvent(1, "Incident resolved. Processing stopped.")
	assert.Equal(t, "Incident resolved. Processing stopped.", system.Payload["message"])
}

func TestEventMessage_WireShape(t *testing.T) {
	ev := NewAITag(3, []string{"general"}, "src-9")

	data, err := json.Marshal(NewEventMessage(ev))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "timeline_event", decoded["type"])

	event, ok := decoded["event"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ev.EventID, event["event_id"])
	assert.Equal(t, float64(3), event["incident_id"])
	assert.Equal(t, "ai_tag", event["type"])

	// Timestamps travel as RFC3339 in UTC.
	created, ok := event["created_at"].(string)
	require.True(t, ok)
	parsed, err := time.Parse(time.RFC3339Nano, created)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ev.CreatedAt))

	payload, ok := event["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"general"}, payload["tags"])
	assert.Equal(t, "src-9", payload["source_event_id"])
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusInvestigating, StatusMonitoring, true},
		{StatusInvestigating, StatusResolved, true},
		{StatusMonitoring, StatusResolved, true},
		{StatusMonitoring, StatusInvestigating, false},
		{StatusResolved, StatusInvestigating, false},
		{StatusResolved, StatusMonitoring, false},
		{StatusInvestigating, StatusInvestigating, false},
		{StatusInvestigating, Status("closed"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestIncident_Summary(t *testing.T) {
	inc := &Incident{
		ID:       5,
		Title:    "incident",
		Severity: SeverityP2,
		Status:   StatusMonitoring,
		Timeline: []TimelineEvent{NewSystemEvent(5, "created")},
	}

	summary := inc.Summary()
	assert.Equal(t, int64(5), summary.ID)
	assert.Equal(t, StatusMonitoring, summary.Status)

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "timeline")
}
