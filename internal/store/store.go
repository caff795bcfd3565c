// Package store provides the in-memory timeline store: the single source
// of truth for incidents and their ordered event sequences.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bissquit/incident-room/internal/domain"
)

// Store errors.
var (
	ErrNotFound          = errors.New("incident not found")
	ErrResolved          = errors.New("incident is resolved")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Store holds incidents behind a single critical section so concurrent
// creates, appends and reads never interleave into an inconsistent state.
// It is intentionally in-memory; the consumers depend on interfaces, so a
// durable implementation can replace it without touching them.
type Store struct {
	mu        sync.Mutex
	nextID    int64
	incidents map[int64]*domain.Incident
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:    1,
		incidents: make(map[int64]*domain.Incident),
	}
}

// Create registers a new incident, assigns the next identity and seeds a
// system event recording the creation. Returns a copy of the incident.
func (s *Store) Create(title string, severity domain.Severity) (*domain.Incident, error) {
	if !severity.IsValid() {
		return nil, fmt.Errorf("invalid severity: %s", severity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	inc := &domain.Incident{
		ID:        id,
		Title:     title,
		Severity:  severity,
		Status:    domain.StatusInvestigating,
		CreatedAt: time.Now().UTC(),
	}
	inc.Timeline = append(inc.Timeline, domain.NewSystemEvent(
		id, fmt.Sprintf("Incident created: %s (%s)", title, severity),
	))

	s.incidents[id] = inc
	return clone(inc), nil
}

// Get returns a copy of the incident with its full timeline.
func (s *Store) Get(id int64) (*domain.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(inc), nil
}

// Append adds an event to the incident's timeline and returns the resulting
// incident so callers can broadcast without a second read. Appends to a
// resolved incident are rejected: the only events a resolved incident ever
// receives are appended inside UpdateStatus as part of the transition itself.
func (s *Store) Append(id int64, event domain.TimelineEvent) (*domain.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return nil, ErrNotFound
	}
	if inc.Status == domain.StatusResolved {
		return nil, ErrResolved
	}

	inc.Timeline = append(inc.Timeline, event)
	return clone(inc), nil
}

// UpdateStatus transitions the incident to newStatus and appends a
// status_change event capturing from/to. A transition to resolved also
// appends the resolution system event within the same critical section.
// The appended events are returned alongside the incident for broadcasting.
func (s *Store) UpdateStatus(id int64, newStatus domain.Status) (*domain.Incident, []domain.TimelineEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	if inc.Status == domain.StatusResolved {
		return nil, nil, ErrResolved
	}
	if !inc.Status.CanTransitionTo(newStatus) {
		return nil, nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inc.Status, newStatus)
	}

	appended := []domain.TimelineEvent{
		domain.NewStatusChange(id, inc.Status, newStatus),
	}
	inc.Status = newStatus

	if newStatus == domain.StatusResolved {
		appended = append(appended, domain.NewSystemEvent(
			id, "Incident resolved. Processing stopped.",
		))
	}

	inc.Timeline = append(inc.Timeline, appended...)
	return clone(inc), appended, nil
}

// ListSummaries returns timeline-free projections of all incidents,
// ordered by identity.
func (s *Store) ListSummaries() []domain.IncidentSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]domain.IncidentSummary, 0, len(s.incidents))
	for id := int64(1); id < s.nextID; id++ {
		if inc, ok := s.incidents[id]; ok {
			summaries = append(summaries, inc.Summary())
		}
	}
	return summaries
}

// clone copies an incident so callers never alias store-owned state.
// Events are immutable once created, so a shallow copy of the timeline
// slice is sufficient.
func clone(inc *domain.Incident) *domain.Incident {
	out := *inc
	out.Timeline = make([]domain.TimelineEvent, len(inc.Timeline))
	copy(out.Timeline, inc.Timeline)
	return &out
}
