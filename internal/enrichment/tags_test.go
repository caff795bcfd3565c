package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected []string
	}{
		{
			name:     "multiple keywords in vocabulary order",
			message:  "DB timeout on checkout-service, latency spiking",
			expected: []string{"database", "timeout", "payments", "latency"},
		},
		{
			name:     "no keywords falls back to general",
			message:  "all good here",
			expected: []string{"general"},
		},
		{
			name:     "case insensitive",
			message:  "DATABASE LATENCY",
			expected: []string{"database", "latency"},
		},
		{
			name:     "substring match inside a word",
			message:  "rdbms acting up",
			expected: []string{"database"},
		},
		{
			name:     "payment alias",
			message:  "payment failures reported",
			expected: []string{"payments"},
		},
		{
			name:     "crash and capacity",
			message:  "pod crash after memory spike",
			expected: []string{"crash", "capacity"},
		},
		{
			name:     "empty message",
			message:  "",
			expected: []string{"general"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractTags(tt.message))
		})
	}
}
