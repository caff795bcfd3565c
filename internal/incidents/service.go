// Package incidents provides the incident room's business logic and its
// HTTP/websocket surface: the shared timeline, live rooms and the hook
// into the background enrichment pipeline.
package incidents

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/incident-room/internal/domain"
	"github.com/bissquit/incident-room/internal/enrichment"
	"github.com/bissquit/incident-room/internal/pkg/ctxlog"
	"github.com/bissquit/incident-room/internal/store"
)

// Store is the timeline store the service depends on.
type Store interface {
	Create(title string, severity domain.Severity) (*domain.Incident, error)
	Get(id int64) (*domain.Incident, error)
	Append(id int64, event domain.TimelineEvent) (*domain.Incident, error)
	UpdateStatus(id int64, newStatus domain.Status) (*domain.Incident, []domain.TimelineEvent, error)
	ListSummaries() []domain.IncidentSummary
}

// JobSubmitter accepts enrichment jobs, fire-and-forget.
type JobSubmitter interface {
	Submit(job enrichment.Job) error
}

// Broadcaster delivers messages to an incident's live room.
type Broadcaster interface {
	Broadcast(incidentID int64, message any)
}

// Service implements incident business logic.
type Service struct {
	store Store
	queue JobSubmitter
	rooms Broadcaster

	// ingest serializes append+broadcast+enqueue of human updates per
	// incident, so two quick updates can never be appended out of order
	// relative to their enqueue. It is distinct from the enrichment
	// pipeline's lock: a human update must not wait behind a running
	// summarization stage.
	ingest *enrichment.KeyMutex
}

// NewService creates a new incident service.
func NewService(st Store, queue JobSubmitter, rooms Broadcaster) *Service {
	return &Service{
		store:  st,
		queue:  queue,
		rooms:  rooms,
		ingest: enrichment.NewKeyMutex(),
	}
}

// CreateIncident registers a new incident.
func (s *Service) CreateIncident(ctx context.Context, title string, severity domain.Severity) (*domain.Incident, error) {
	inc, err := s.store.Create(title, severity)
	if err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	ctxlog.FromContext(ctx).Info("incident created",
		"incident_id", inc.ID,
		"severity", inc.Severity,
	)
	return inc, nil
}

// GetIncident returns the incident with its full timeline.
func (s *Service) GetIncident(_ context.Context, id int64) (*domain.Incident, error) {
	return s.store.Get(id)
}

// ListIncidents returns timeline-free summaries of all incidents.
func (s *Service) ListIncidents(_ context.Context) []domain.IncidentSummary {
	return s.store.ListSummaries()
}

// UpdateStatus transitions the incident and broadcasts the resulting
// timeline events to the room. A transition to resolved carries the
// resolution system event along, so live viewers learn processing has
// stopped.
func (s *Service) UpdateStatus(ctx context.Context, id int64, newStatus domain.Status) (*domain.Incident, error) {
	inc, events, err := s.store.UpdateStatus(id, newStatus)
	if err != nil {
		return nil, err
	}

	for _, ev := range events {
		s.rooms.Broadcast(id, domain.NewEventMessage(ev))
	}

	ctxlog.FromContext(ctx).Info("incident status updated",
		"incident_id", id,
		"status", newStatus,
	)
	return inc, nil
}

// PostUpdate ingests a human update: append to the timeline, broadcast to
// the room, then submit the enrichment job. The three steps run as one
// unit under the incident's ingest lock so concurrent updates keep their
// append order equal to their enqueue order.
func (s *Service) PostUpdate(ctx context.Context, incidentID int64, message string) (*domain.TimelineEvent, error) {
	s.ingest.Lock(incidentID)
	defer s.ingest.Unlock(incidentID)

	inc, err := s.store.Get(incidentID)
	if err != nil {
		return nil, err
	}
	if inc.Status == domain.StatusResolved {
		return nil, ErrIncidentResolved
	}

	event := domain.NewHumanUpdate(incidentID, message)
	if _, err := s.store.Append(incidentID, event); err != nil {
		if errors.Is(err, store.ErrResolved) {
			return nil, ErrIncidentResolved
		}
		return nil, err
	}

	s.rooms.Broadcast(incidentID, domain.NewEventMessage(event))

	if err := s.queue.Submit(enrichment.Job{
		IncidentID:    incidentID,
		SourceEventID: event.EventID,
		Message:       message,
	}); err != nil {
		// The update itself is already durable in the timeline; losing
		// the enrichment is the documented overload behavior.
		ctxlog.FromContext(ctx).Warn("enrichment job dropped",
			"incident_id", incidentID,
			"source_event_id", event.EventID,
			"error", err,
		)
	}

	return &event, nil
}
