// Package enrichment implements the background pipeline that analyzes
// human updates: a bounded job queue, a fixed worker pool and the
// two-stage tag/summary enrichment, serialized per incident.
package enrichment

// Job is a transient unit of work representing "analyze this human
// update". Jobs are consumed at most once and never retried.
type Job struct {
	IncidentID    int64
	SourceEventID string
	Message       string
}
