package workflow

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/kilianp07/batterycare/core/analysis"
	"github.com/kilianp07/batterycare/core/notify"
	"github.com/kilianp07/batterycare/core/planner"
	"github.com/kilianp07/batterycare/core/scheduler"
)

// Stage is one step of the workflow.
type Stage interface {
	Name() StageName
	Run(ctx context.Context, prior State) (Delta, error)
}

var errMissingInput = errors.New("required input missing from state")

// AnalyzeStage derives the health insight from the telemetry.
type AnalyzeStage struct {
	Analyzer *analysis.Analyzer
}

func (AnalyzeStage) Name() StageName { return StageAnalyze }

func (s AnalyzeStage) Run(_ context.Context, prior State) (Delta, error) {
	ins, err := s.Analyzer.Analyze(prior.Telemetry)
	if err != nil {
		return Delta{}, err
	}
	return Delta{Insight: &ins}, nil
}

// PlanStage maps the insight to a service plan.
type PlanStage struct {
	Planner *planner.Planner
}

func (PlanStage) Name() StageName { return StagePlan }

func (s PlanStage) Run(ctx context.Context, prior State) (Delta, error) {
	if prior.Insight == nil {
		return Delta{}, errMissingInput
	}
	plan := s.Planner.Plan(ctx, prior.Insight.Clone())
	return Delta{Plan: &plan}, nil
}

// ScheduleStage books an appointment when the plan asks for one. The pool and
// the random source are rebuilt on every run from Now and Rand. A nil Rand
// draws independently on every run.
type ScheduleStage struct {
	Scheduler *scheduler.Scheduler
	Config    scheduler.SchedulerConfig
	Rand      func() *rand.Rand
	Now       func() time.Time
}

func (ScheduleStage) Name() StageName { return StageSchedule }

func (s ScheduleStage) Run(_ context.Context, prior State) (Delta, error) {
	if prior.Plan == nil {
		return Delta{}, errMissingInput
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	newRand := scheduler.RandomSource
	if s.Rand != nil {
		newRand = s.Rand
	}
	pool := scheduler.BuildPool(s.Config, now())
	appt, err := s.Scheduler.Schedule(*prior.Plan, pool, newRand())
	if err != nil {
		return Delta{}, err
	}
	return Delta{Appointment: &appt}, nil
}

// NotifyStage composes the user message.
type NotifyStage struct {
	Composer *notify.Composer
}

func (NotifyStage) Name() StageName { return StageNotify }

func (s NotifyStage) Run(_ context.Context, prior State) (Delta, error) {
	if prior.Insight == nil || prior.Plan == nil || prior.Appointment == nil {
		return Delta{}, errMissingInput
	}
	n, err := s.Composer.Compose(*prior.Insight, *prior.Plan, *prior.Appointment)
	if err != nil {
		return Delta{}, err
	}
	return Delta{Notification: &n}, nil
}
