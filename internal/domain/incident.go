package domain

import "time"

// Status represents the lifecycle state of an incident.
type Status string

// Incident statuses. Transitions are forward-only; resolved is terminal.
const (
	StatusInvestigating Status = "investigating"
	StatusMonitoring    Status = "monitoring"
	StatusResolved      Status = "resolved"
)

// Severity represents the severity level of an incident.
type Severity string

// Severity levels.
const (
	SeverityP1 Severity = "P1"
	SeverityP2 Severity = "P2"
	SeverityP3 Severity = "P3"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	return s == StatusInvestigating || s == StatusMonitoring || s == StatusResolved
}

// IsValid checks if the severity is valid.
func (s Severity) IsValid() bool {
	return s == SeverityP1 || s == SeverityP2 || s == SeverityP3
}

func (s Status) rank() int {
	switch s {
	case StatusInvestigating:
		return 0
	case StatusMonitoring:
		return 1
	case StatusResolved:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether the status may move to next.
// Statuses only move forward (skips allowed); resolved accepts nothing.
func (s Status) CanTransitionTo(next Status) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	return next.rank() > s.rank()
}

// Incident is a tracked issue with an append-only event timeline.
// The timeline is owned exclusively by the incident; append order is
// display order.
type Incident struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Severity  Severity        `json:"severity"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Timeline  []TimelineEvent `json:"timeline"`
}

// IncidentSummary is an incident projection without the timeline,
// used for list endpoints.
type IncidentSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Severity  Severity  `json:"severity"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary returns the incident's timeline-free projection.
func (i *Incident) Summary() IncidentSummary {
	return IncidentSummary{
		ID:        i.ID,
		Title:     i.Title,
		Severity:  i.Severity,
		Status:    i.Status,
		CreatedAt: i.CreatedAt,
	}
}
