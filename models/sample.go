package models

import (
	"errors"
	"time"
)

type Sample struct {
	Timestamp      string  `json:"timestamp"`
	Endpoint       string  `json:"endpoint"`
	ResponseTimeMs float64 `json:"response_time_ms"`
}

// Validate checks the envelope only. Range validation of the response time
// happens in the aggregator, which counts rejections per day.
func (s *Sample) Validate() error {
	if s.Endpoint == "" {
		return errors.New("endpoint is required")
	}

	if s.Timestamp == "" {
		return errors.New("timestamp is required")
	}

	if _, err := time.Parse(time.RFC3339, s.Timestamp); err != nil {
		return errors.New("invalid timestamp format, expected RFC3339")
	}

	return nil
}

func (s *Sample) ReceivedAt() time.Time {
	t, err := time.Parse(time.RFC3339, s.Timestamp)
	if err != nil {
		return time.Now()
	}
	return t
}

type StatsSummary struct {
	AverageMs  int       `json:"average_ms"`
	MedianMs   float64   `json:"median_ms"`
	TotalCount int       `json:"total_count"`
	ErrorCount int       `json:"error_count"`
	WindowDays int       `json:"window_days"`
	ComputedAt time.Time `json:"computed_at"`
}
