package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/batterycare/core/events"
	"github.com/kilianp07/batterycare/core/logger"
	"github.com/kilianp07/batterycare/core/model"
	"github.com/kilianp07/batterycare/internal/eventbus"
)

// Orchestrator runs the stages in their fixed order.
type Orchestrator struct {
	stages []Stage
	newID  func() string
	now    func() time.Time
	bus    eventbus.Publisher[events.Event]
	log    logger.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithIDGenerator replaces the uuid run identifiers.
func WithIDGenerator(f func() string) Option {
	return func(o *Orchestrator) {
		if f != nil {
			o.newID = f
		}
	}
}

// WithClock sets the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithEventBus publishes a StageEvent per stage and a RunEvent per run.
func WithEventBus(bus eventbus.Publisher[events.Event]) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) { o.log = logger.OrNop(log) }
}

// NewOrchestrator checks that stages are exactly analyze, plan, schedule and
// notify in that order.
func NewOrchestrator(stages []Stage, opts ...Option) (*Orchestrator, error) {
	if len(stages) != len(stageOrder) {
		return nil, fmt.Errorf("workflow: expected %d stages, got %d", len(stageOrder), len(stages))
	}
	for i, s := range stages {
		if s == nil {
			return nil, fmt.Errorf("workflow: stage %d is nil", i)
		}
		if s.Name() != stageOrder[i].name {
			return nil, fmt.Errorf("workflow: stage %d is %s, want %s", i, s.Name(), stageOrder[i].name)
		}
	}
	o := &Orchestrator{
		stages: stages,
		newID:  uuid.NewString,
		now:    time.Now,
		log:    logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes one workflow over the telemetry. On failure the returned error
// is a *StageError carrying the partial state; the state is also returned.
// Cancellation is only observed between stages.
func (o *Orchestrator) Run(ctx context.Context, telemetry []model.TelemetryRecord) (State, error) {
	start := time.Now()
	state := State{
		RunID:     o.newID(),
		Phase:     PhaseStart,
		Telemetry: append([]model.TelemetryRecord(nil), telemetry...),
	}
	log := o.log.With("run_id", state.RunID)
	log.Infof("workflow started with %d records", len(telemetry))

	for i, stage := range o.stages {
		if err := ctx.Err(); err != nil {
			o.publishStage(state, stage.Name(), events.OutcomeCancelled, 0, err)
			return o.finish(log, state, start, &StageError{Stage: stage.Name(), State: state, Err: err})
		}
		began := time.Now()
		delta, err := o.runStage(ctx, stage, state)
		elapsed := time.Since(began)
		if err == nil {
			err = checkOwnership(stage.Name(), delta)
		}
		if err != nil {
			err = classify(err)
			o.publishStage(state, stage.Name(), events.OutcomeFailed, elapsed, err)
			log.Errorf("stage %s failed: %v", stage.Name(), err)
			return o.finish(log, state, start, &StageError{Stage: stage.Name(), State: state, Err: err})
		}
		state = state.merge(delta, stageOrder[i].phase)
		o.publishStage(state, stage.Name(), events.OutcomeOK, elapsed, nil)
		log.Debugw("stage completed", map[string]any{
			"stage":    string(stage.Name()),
			"version":  state.Version,
			"phase":    string(state.Phase),
			"duration": elapsed.String(),
		})
	}
	state.Phase = PhaseEnd
	return o.finish(log, state, start, nil)
}

func (o *Orchestrator) runStage(ctx context.Context, s Stage, prior State) (d Delta, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrStageFailure, r)
		}
	}()
	return s.Run(ctx, prior)
}

// checkOwnership rejects deltas that write a field owned by another stage or
// leave the stage's own field empty.
func checkOwnership(name StageName, d Delta) error {
	for owner, set := range d.fields() {
		if owner == name && !set {
			return fmt.Errorf("%w: stage produced no output", ErrStageFailure)
		}
		if owner != name && set {
			return fmt.Errorf("%w: stage wrote output owned by %s", ErrStageFailure, owner)
		}
	}
	return nil
}

// classify keeps data errors and cancellations as they are and marks
// everything else as a stage failure.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrStageFailure),
		errors.Is(err, model.ErrDataInsufficient),
		errors.Is(err, model.ErrSchema),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStageFailure, err)
	}
}

func (o *Orchestrator) finish(log logger.Logger, state State, start time.Time, serr *StageError) (State, error) {
	ev := events.RunEvent{
		RunID:    state.RunID,
		Phase:    string(state.Phase),
		Outcome:  events.OutcomeOK,
		Duration: time.Since(start),
		Time:     o.now(),
	}
	if state.Insight != nil {
		ev.Status = string(state.Insight.Status)
		ev.Anomalies = len(state.Insight.Anomalies)
		ev.LatestSoH = state.Insight.LatestStateOfHealth
		ev.AvgLoss = state.Insight.AverageLossPerCycle
	}
	if state.Plan != nil {
		ev.Urgency = string(state.Plan.Urgency)
	}
	if state.Appointment != nil {
		ev.Appointment = string(state.Appointment.Status)
	}
	if serr != nil {
		ev.Outcome = events.OutcomeFailed
		if errors.Is(serr.Err, context.Canceled) || errors.Is(serr.Err, context.DeadlineExceeded) {
			ev.Outcome = events.OutcomeCancelled
		}
		ev.Err = serr
	}
	if o.bus != nil {
		o.bus.Publish(ev)
	}
	if serr != nil {
		log.Warnf("workflow halted at %s in phase %s", serr.Stage, state.Phase)
		return state, serr
	}
	log.Infof("workflow finished at version %d", state.Version)
	return state, nil
}

func (o *Orchestrator) publishStage(state State, name StageName, outcome events.Outcome, d time.Duration, err error) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(events.StageEvent{
		RunID:    state.RunID,
		Stage:    string(name),
		Phase:    string(state.Phase),
		Outcome:  outcome,
		Duration: d,
		Err:      err,
		Time:     o.now(),
	})
}
