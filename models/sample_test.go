package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleValidate(t *testing.T) {
	valid := Sample{
		Timestamp:      "2026-08-30T12:00:00Z",
		Endpoint:       "/api/orders",
		ResponseTimeMs: 120,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Sample)
		errMsg string
	}{
		{"missing endpoint", func(s *Sample) { s.Endpoint = "" }, "endpoint is required"},
		{"missing timestamp", func(s *Sample) { s.Timestamp = "" }, "timestamp is required"},
		{"bad timestamp", func(s *Sample) { s.Timestamp = "30/08/2026" }, "invalid timestamp format, expected RFC3339"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.errMsg, err.Error())
		})
	}
}

func TestSampleReceivedAt(t *testing.T) {
	s := Sample{Timestamp: "2026-08-30T12:00:00Z"}
	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), s.ReceivedAt())

	// Unparseable timestamps fall back to now rather than the zero time.
	s.Timestamp = "garbage"
	assert.WithinDuration(t, time.Now(), s.ReceivedAt(), time.Minute)
}
