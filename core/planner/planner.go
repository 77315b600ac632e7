// Package planner maps a battery health insight to a maintenance action. The
// mapping is a total function of the insight status. An optional Enricher may
// attach knowledge findings without touching the decision fields.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/batterycare/core/logger"
	"github.com/kilianp07/batterycare/core/model"
)

// Actions for each status.
const (
	ActionRapid    = "Immediate service required. Schedule battery inspection and replacement as a priority."
	ActionModerate = "Schedule service within the next month. Focus on battery health monitoring."
	ActionNormal   = "Routine maintenance at the next regular service interval. No immediate action needed."
	ActionUnknown  = "Unable to determine action due to missing status."
)

// Enricher attaches supplementary findings to a plan.
type Enricher interface {
	Enrich(ctx context.Context, insight model.HealthInsight) (model.KnowledgeFindings, error)
}

// NoopEnricher adds nothing.
type NoopEnricher struct{}

func (NoopEnricher) Enrich(context.Context, model.HealthInsight) (model.KnowledgeFindings, error) {
	return model.KnowledgeFindings{}, nil
}

// Baseline returns the plan for a status. Any status outside rapid, moderate
// and normal maps to the unknown plan.
func Baseline(status model.HealthStatus) model.ServicePlan {
	plan := model.ServicePlan{SourceStatus: status}
	switch status {
	case model.StatusRapid:
		plan.Action, plan.Urgency, plan.RequiresAppointment = ActionRapid, model.UrgencyHigh, true
	case model.StatusModerate:
		plan.Action, plan.Urgency, plan.RequiresAppointment = ActionModerate, model.UrgencyMedium, true
	case model.StatusNormal:
		plan.Action, plan.Urgency = ActionNormal, model.UrgencyLow
	default:
		plan.Action, plan.Urgency = ActionUnknown, model.UrgencyUnknown
	}
	return plan
}

// Planner builds service plans.
type Planner struct {
	enricher Enricher
	timeout  time.Duration
	log      logger.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithEnricher sets the optional enrichment collaborator.
func WithEnricher(e Enricher) Option {
	return func(p *Planner) {
		if e != nil {
			p.enricher = e
		}
	}
}

// WithTimeout bounds each enrichment call.
func WithTimeout(d time.Duration) Option {
	return func(p *Planner) { p.timeout = d }
}

// New returns a Planner. Without WithEnricher the NoopEnricher is used and
// plans carry no findings.
func New(log logger.Logger, opts ...Option) *Planner {
	p := &Planner{enricher: NoopEnricher{}, log: logger.OrNop(log)}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Enriched reports whether a real enricher is configured.
func (p *Planner) Enriched() bool {
	_, noop := p.enricher.(NoopEnricher)
	return !noop
}

// Plan returns the plan for the insight. It never fails: enrichment errors are
// logged and replaced by empty findings.
func (p *Planner) Plan(ctx context.Context, insight model.HealthInsight) model.ServicePlan {
	plan := Baseline(insight.Status)
	if !p.Enriched() {
		return plan
	}
	findings, err := p.enrich(ctx, insight)
	if err != nil {
		p.log.Warnf("knowledge enrichment skipped: %v", err)
		findings = model.KnowledgeFindings{Procedures: []model.Procedure{}, RoutineIDs: []string{}}
	}
	plan.KnowledgeFindings = &findings
	return plan
}

func (p *Planner) enrich(ctx context.Context, insight model.HealthInsight) (f model.KnowledgeFindings, err error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", model.ErrCollaboratorUnavailable, r)
		}
	}()
	f, err = p.enricher.Enrich(ctx, insight)
	if err != nil && !errors.Is(err, model.ErrCollaboratorUnavailable) {
		err = fmt.Errorf("%w: %v", model.ErrCollaboratorUnavailable, err)
	}
	return f, err
}
