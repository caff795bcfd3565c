package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of a timeline event.
type EventType string

// Timeline event types.
const (
	EventTypeHumanUpdate  EventType = "human_update"
	EventTypeStatusChange EventType = "status_change"
	EventTypeAITag        EventType = "ai_tag"
	EventTypeAISummary    EventType = "ai_summary"
	EventTypeSystem       EventType = "system"
)

// TimelineEvent is one immutable, typed, timestamped record in an
// incident's timeline. The payload shape depends on the event type.
type TimelineEvent struct {
	EventID    string         `json:"event_id"`
	IncidentID int64          `json:"incident_id"`
	Type       EventType      `json:"type"`
	CreatedAt  time.Time      `json:"created_at"`
	Payload    map[string]any `json:"payload"`
}

func newEvent(incidentID int64, eventType EventType, payload map[string]any) TimelineEvent {
	return TimelineEvent{
		EventID:    uuid.NewString(),
		IncidentID: incidentID,
		Type:       eventType,
		CreatedAt:  time.Now().UTC(),
		Payload:    payload,
	}
}

// NewHumanUpdate creates a human_update event carrying free-text message.
func NewHumanUpdate(incidentID int64, message string) TimelineEvent {
	return newEvent(incidentID, EventTypeHumanUpdate, map[string]any{
		"message": message,
	})
}

// NewStatusChange creates a status_change event capturing the transition.
func NewStatusChange(incidentID int64, from, to Status) TimelineEvent {
	return newEvent(incidentID, EventTypeStatusChange, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
}

// NewAITag creates an ai_tag event referencing the triggering human update.
func NewAITag(incidentID int64, tags []string, sourceEventID string) TimelineEvent {
	return newEvent(incidentID, EventTypeAITag, map[string]any{
		"tags":            tags,
		"source_event_id": sourceEventID,
	})
}

// NewAISummary creates an ai_summary event referencing the triggering human update.
func NewAISummary(incidentID int64, summary, sourceEventID string) TimelineEvent {
	return newEvent(incidentID, EventTypeAISummary, map[string]any{
		"summary":         summary,
		"source_event_id": sourceEventID,
	})
}

// NewSystemEvent creates an informational system event.
func NewSystemEvent(incidentID int64, message string) TimelineEvent {
	return newEvent(incidentID, EventTypeSystem, map[string]any{
		"message": message,
	})
}

// EventMessage is the wire envelope for a broadcast timeline event.
type EventMessage struct {
	Type  string        `json:"type"`
	Event TimelineEvent `json:"event"`
}

// NewEventMessage wraps a timeline event for broadcasting.
func NewEventMessage(ev TimelineEvent) EventMessage {
	return EventMessage{Type: "timeline_event", Event: ev}
}
