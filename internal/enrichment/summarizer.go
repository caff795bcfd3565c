package enrichment

import (
	"context"
	"strings"
	"time"
)

// Summary generation constants.
const (
	summaryLabel       = "Summary: "
	continuationMarker = "..."
)

// Summarizer produces a summary for a human update. It is the seam for a
// real external enrichment service; implementations must honor ctx so a
// slow backend can be cut off by the pool's per-job timeout.
type Summarizer interface {
	Summarize(ctx context.Context, job Job) (string, error)
}

// SimulatedSummarizer stands in for an external summarization service.
// It waits a fixed delay, then returns a labeled, bounded prefix of the
// original message.
type SimulatedSummarizer struct {
	// Delay is the simulated processing time per call.
	Delay time.Duration
	// MaxLen bounds the summary body in runes; longer messages are
	// truncated and marked with a continuation marker.
	MaxLen int
}

// Summarize implements Summarizer.
func (s *SimulatedSummarizer) Summarize(ctx context.Context, job Job) (string, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	body := strings.TrimSpace(job.Message)
	if runes := []rune(body); len(runes) > s.MaxLen {
		body = strings.TrimRight(string(runes[:s.MaxLen]), " ") + continuationMarker
	}

	return summaryLabel + body, nil
}
