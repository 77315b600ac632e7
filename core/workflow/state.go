package workflow

import "github.com/kilianp07/batterycare/core/model"

// StageName identifies a stage.
type StageName string

const (
	StageAnalyze  StageName = "analyze"
	StagePlan     StageName = "plan"
	StageSchedule StageName = "schedule"
	StageNotify   StageName = "notify"
)

// Phase is the lifecycle position of a run.
type Phase string

const (
	PhaseStart     Phase = "start"
	PhaseAnalyzed  Phase = "analyzed"
	PhasePlanned   Phase = "planned"
	PhaseScheduled Phase = "scheduled"
	PhaseNotified  Phase = "notified"
	PhaseEnd       Phase = "end"
)

// stageOrder is the fixed execution order with the phase reached after each
// stage.
var stageOrder = []struct {
	name  StageName
	phase Phase
}{
	{StageAnalyze, PhaseAnalyzed},
	{StagePlan, PhasePlanned},
	{StageSchedule, PhaseScheduled},
	{StageNotify, PhaseNotified},
}

// State is the shared record of one run. A stage never sees a State modified
// by a later stage.
type State struct {
	RunID        string
	Version      int
	Phase        Phase
	Telemetry    []model.TelemetryRecord
	Insight      *model.HealthInsight
	Plan         *model.ServicePlan
	Appointment  *model.Appointment
	Notification *model.Notification
}

// Delta is the output of a stage. Exactly the field owned by the stage must
// be set.
type Delta struct {
	Insight      *model.HealthInsight
	Plan         *model.ServicePlan
	Appointment  *model.Appointment
	Notification *model.Notification
}

func (d Delta) fields() map[StageName]bool {
	return map[StageName]bool{
		StageAnalyze:  d.Insight != nil,
		StagePlan:     d.Plan != nil,
		StageSchedule: d.Appointment != nil,
		StageNotify:   d.Notification != nil,
	}
}

// merge returns a copy of s with the delta applied, the version incremented
// and the phase advanced.
func (s State) merge(d Delta, phase Phase) State {
	next := s
	if d.Insight != nil {
		next.Insight = d.Insight
	}
	if d.Plan != nil {
		next.Plan = d.Plan
	}
	if d.Appointment != nil {
		next.Appointment = d.Appointment
	}
	if d.Notification != nil {
		next.Notification = d.Notification
	}
	next.Version++
	next.Phase = phase
	return next
}

// Artifact returns the externally visible form of the state. Only the
// outputs produced so far are present.
func (s State) Artifact() map[string]any {
	out := map[string]any{
		"run_id":  s.RunID,
		"version": s.Version,
		"phase":   s.Phase,
	}
	if s.Insight != nil {
		out["battery_insight"] = *s.Insight
	}
	if s.Plan != nil {
		out["service_plan"] = *s.Plan
	}
	if s.Appointment != nil {
		out["appointment"] = *s.Appointment
	}
	if n := s.Notification; n != nil {
		if n.Message != nil {
			out["user_message"] = *n.Message
		}
		if n.SuppressedReason != nil {
			out["suppressed_reason"] = *n.SuppressedReason
		}
	}
	return out
}
