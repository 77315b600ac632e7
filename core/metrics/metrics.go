package metrics

import (
	"errors"
	"time"
)

// StageRecord describes one stage attempt.
type StageRecord struct {
	RunID    string
	Stage    string
	Outcome  string
	Duration time.Duration
	Time     time.Time
}

// RunRecord summarises one workflow run.
type RunRecord struct {
	RunID       string
	Phase       string
	Outcome     string
	Status      string
	Urgency     string
	Appointment string
	Anomalies   int
	LatestSoH   float64
	AvgLoss     *float64
	Duration    time.Duration
	Time        time.Time
}

// MetricsSink records workflow metrics for observability purposes.
type MetricsSink interface {
	RecordStage(rec StageRecord) error
	RecordRun(rec RunRecord) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordStage(StageRecord) error { return nil }
func (NopSink) RecordRun(RunRecord) error     { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStage forwards the record to every sink and joins their errors.
func (m *MultiSink) RecordStage(rec StageRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordStage(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards the record to every sink and joins their errors.
func (m *MultiSink) RecordRun(rec RunRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		Close(s)
	}
}

// Close releases s if it holds resources such as a write buffer.
func Close(s MetricsSink) {
	if c, ok := s.(interface{ Close() }); ok {
		c.Close()
	}
}
