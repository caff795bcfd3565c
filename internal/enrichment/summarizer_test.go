package enrichment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedSummarizer_ShortMessageUnmodified(t *testing.T) {
	s := &SimulatedSummarizer{MaxLen: 160}
	message := strings.Repeat("a", 50)

	summary, err := s.Summarize(context.Background(), Job{Message: message})
	require.NoError(t, err)

	assert.Equal(t, "Summary: "+message, summary)
}

func TestSimulatedSummarizer_LongMessageTruncated(t *testing.T) {
	s := &SimulatedSummarizer{MaxLen: 160}
	message := strings.Repeat("a", 500)

	summary, err := s.Summarize(context.Background(), Job{Message: message})
	require.NoError(t, err)

	assert.Equal(t, "Summary: "+strings.Repeat("a", 160)+"...", summary)
	assert.True(t, strings.HasSuffix(summary, "..."))
}

func TestSimulatedSummarizer_TrimsWhitespace(t *testing.T) {
	s := &SimulatedSummarizer{MaxLen: 160}

	summary, err := s.Summarize(context.Background(), Job{Message: "  padded  "})
	require.NoError(t, err)

	assert.Equal(t, "Summary: padded", summary)
}

func TestSimulatedSummarizer_DelayHonorsContext(t *testing.T) {
	s := &SimulatedSummarizer{Delay: 10 * time.Second, MaxLen: 160}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Summarize(ctx, Job{Message: "slow call"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
