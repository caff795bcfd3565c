package enrichment

import "errors"

// ErrQueueFull is returned by Submit under the reject policy when the
// queue is at capacity.
var ErrQueueFull = errors.New("enrichment queue is full")

// FullPolicy selects what Submit does when the queue is at capacity.
type FullPolicy string

// Full policies.
const (
	// PolicyReject drops the job and returns ErrQueueFull. Submit never
	// blocks the caller.
	PolicyReject FullPolicy = "reject"
	// PolicyBlock makes Submit wait for free capacity.
	PolicyBlock FullPolicy = "block"
)

// IsValid checks if the policy is valid.
func (p FullPolicy) IsValid() bool {
	return p == PolicyReject || p == PolicyBlock
}

// Queue is a bounded, order-preserving FIFO of enrichment jobs. It
// decouples event ingestion from processing latency while keeping memory
// bounded under sustained overload.
type Queue struct {
	ch     chan Job
	policy FullPolicy
}

// NewQueue creates a queue with the given capacity and full policy.
func NewQueue(capacity int, policy FullPolicy) *Queue {
	return &Queue{
		ch:     make(chan Job, capacity),
		policy: policy,
	}
}

// Submit enqueues a job. Under the reject policy it never blocks; a full
// queue yields ErrQueueFull and the job is dropped.
func (q *Queue) Submit(job Job) error {
	switch q.policy {
	case PolicyBlock:
		q.ch <- job
	default:
		select {
		case q.ch <- job:
		default:
			recordJobRejected()
			return ErrQueueFull
		}
	}

	recordJobSubmitted()
	recordQueueDepth(len(q.ch))
	return nil
}

// C returns the receive side of the queue for worker loops.
func (q *Queue) C() <-chan Job {
	return q.ch
}

// Len returns the current number of queued jobs.
func (q *Queue) Len() int {
	return len(q.ch)
}
