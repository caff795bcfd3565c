package enrichment

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bissquit/incident-room/internal/domain"
	"github.com/bissquit/incident-room/internal/store"
)

// Store is the subset of the timeline store the pipeline needs. Workers
// never hold incident copies across suspension points; they re-fetch
// current state after acquiring the incident lock.
type Store interface {
	Get(id int64) (*domain.Incident, error)
	Append(id int64, event domain.TimelineEvent) (*domain.Incident, error)
}

// Broadcaster delivers an event to all live viewers of an incident.
type Broadcaster interface {
	Broadcast(incidentID int64, message any)
}

// Config contains pool configuration.
type Config struct {
	// Workers is the number of concurrent queue consumers.
	Workers int
	// SummaryTimeout bounds a single Summarize call.
	SummaryTimeout time.Duration
}

// DefaultConfig returns default pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers:        2,
		SummaryTimeout: 30 * time.Second,
	}
}

// Pool drains the job queue with a fixed number of workers, each running
// the two-stage enrichment pipeline under the per-incident lock. Jobs for
// one incident execute fully serialized; different incidents run in
// parallel.
type Pool struct {
	config     Config
	queue      *Queue
	store      Store
	rooms      Broadcaster
	summarizer Summarizer
	locks      *KeyMutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewPool creates a worker pool draining queue.
func NewPool(config Config, queue *Queue, st Store, rooms Broadcaster, summarizer Summarizer) *Pool {
	return &Pool{
		config:     config,
		queue:      queue,
		store:      st,
		rooms:      rooms,
		summarizer: summarizer,
		locks:      NewKeyMutex(),
		stopCh:     make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	slog.Info("starting enrichment pool",
		"workers", p.config.Workers,
		"summary_timeout", p.config.SummaryTimeout,
	)

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Stop waits for all workers to finish their current job and exit.
func (p *Pool) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	slog.Info("enrichment pool stopped")
}

func (p *Pool) run(ctx context.Context, workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case job := <-p.queue.C():
			recordQueueDepth(p.queue.Len())
			p.process(ctx, workerID, job)
		}
	}
}

// process runs both enrichment stages for one job. Any failure is logged,
// counted and the job abandoned; enrichment is best-effort, at-most-once.
// Failures never affect other jobs or the worker's ability to keep looping.
func (p *Pool) process(ctx context.Context, workerID int, job Job) {
	start := time.Now()

	p.locks.Lock(job.IncidentID)
	defer p.locks.Unlock(job.IncidentID)

	// Re-validate under the lock: the incident may have vanished or
	// resolved while the job sat in the queue. Either way the job is
	// moot, not an error.
	inc, err := p.store.Get(job.IncidentID)
	if err != nil {
		slog.Debug("discarding job for unknown incident",
			"worker", workerID,
			"incident_id", job.IncidentID,
		)
		recordJobProcessed("discarded", time.Since(start))
		return
	}
	if inc.Status == domain.StatusResolved {
		slog.Debug("discarding job for resolved incident",
			"worker", workerID,
			"incident_id", job.IncidentID,
		)
		recordJobProcessed("discarded", time.Since(start))
		return
	}

	// Stage A: tag derivation.
	tagEvent := domain.NewAITag(job.IncidentID, ExtractTags(job.Message), job.SourceEventID)
	if err := p.appendAndBroadcast(job.IncidentID, tagEvent); err != nil {
		p.abandon(workerID, job, "tag stage failed", err)
		recordJobProcessed("failed", time.Since(start))
		return
	}

	// Stage B: summarization via the pluggable backend.
	summaryCtx, cancel := context.WithTimeout(ctx, p.config.SummaryTimeout)
	defer cancel()

	summary, err := p.summarizer.Summarize(summaryCtx, job)
	if err != nil {
		p.abandon(workerID, job, "summarize failed", err)
		recordJobProcessed("failed", time.Since(start))
		return
	}

	summaryEvent := domain.NewAISummary(job.IncidentID, summary, job.SourceEventID)
	if err := p.appendAndBroadcast(job.IncidentID, summaryEvent); err != nil {
		p.abandon(workerID, job, "summary stage failed", err)
		recordJobProcessed("failed", time.Since(start))
		return
	}

	recordJobProcessed("completed", time.Since(start))

	slog.Debug("job enriched",
		"worker", workerID,
		"incident_id", job.IncidentID,
		"source_event_id", job.SourceEventID,
		"duration", time.Since(start),
	)
}

func (p *Pool) appendAndBroadcast(incidentID int64, event domain.TimelineEvent) error {
	if _, err := p.store.Append(incidentID, event); err != nil {
		return err
	}
	p.rooms.Broadcast(incidentID, domain.NewEventMessage(event))
	return nil
}

// abandon logs a failed job. There is no retry and no dead-letter path;
// the log line and the failure counter are the observability surface.
func (p *Pool) abandon(workerID int, job Job, msg string, err error) {
	level := slog.LevelError
	if errors.Is(err, store.ErrResolved) || errors.Is(err, store.ErrNotFound) {
		// The incident resolved or vanished mid-pipeline; the job is
		// moot rather than broken.
		level = slog.LevelDebug
	}
	slog.Log(context.Background(), level, msg,
		"worker", workerID,
		"incident_id", job.IncidentID,
		"source_event_id", job.SourceEventID,
		"error", err,
	)
}
