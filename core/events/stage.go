package events

import "time"

// Event is implemented by every type published on the workflow bus.
type Event interface {
	EventRunID() string
}

// Outcome of a stage or run.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// StageEvent is published after each stage attempt.
type StageEvent struct {
	RunID    string
	Stage    string
	Phase    string
	Outcome  Outcome
	Duration time.Duration
	Err      error
	Time     time.Time
}

func (e StageEvent) EventRunID() string { return e.RunID }

// RunEvent is published once per run with a summary of the final state.
type RunEvent struct {
	RunID       string
	Phase       string
	Outcome     Outcome
	Status      string
	Urgency     string
	Appointment string
	Anomalies   int
	LatestSoH   float64
	AvgLoss     *float64
	Duration    time.Duration
	Err         error
	Time        time.Time
}

func (e RunEvent) EventRunID() string { return e.RunID }
