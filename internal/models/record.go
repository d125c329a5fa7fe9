package models

import "time"

// TimestampLayout is the UTC wall-clock format used in persisted records.
const TimestampLayout = "2006-01-02 15:04:05"

// SampleSeries is an ordered sequence of CPU utilization readings in percent.
// A series is collected once per run and not modified afterwards.
type SampleSeries []float64

// AggregateRecord is the persisted form of a single aggregate value.
type AggregateRecord struct {
	CPU       float64 `json:"cpu"`
	Timestamp string  `json:"timestamp"`
}

// NewAggregateRecord builds a record for the given value stamped with the
// current UTC time.
func NewAggregateRecord(value float64, now time.Time) AggregateRecord {
	return AggregateRecord{
		CPU:       value,
		Timestamp: now.UTC().Format(TimestampLayout),
	}
}

// PrivacyParams controls the differential privacy mechanism.
type PrivacyParams struct {
	Epsilon float64 `json:"epsilon"`
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
}

// RunResult summarizes one completed tracking run.
type RunResult struct {
	RunID       string    `json:"run_id"`
	Exact       float64   `json:"exact"`
	Noised      float64   `json:"noised"`
	Epsilon     float64   `json:"epsilon"`
	SampleCount int       `json:"sample_count"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}
