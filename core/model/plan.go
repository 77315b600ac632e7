package model

import "encoding/json"

// Urgency is the priority assigned to a service action.
type Urgency string

const (
	UrgencyHigh    Urgency = "high"
	UrgencyMedium  Urgency = "medium"
	UrgencyLow     Urgency = "low"
	UrgencyUnknown Urgency = "unknown"
)

// Procedure is a service manual excerpt relevant to the plan.
type Procedure struct {
	Section string `json:"section"`
	Summary string `json:"summary"`
}

// KnowledgeFindings aggregates what the knowledge lookup returned.
type KnowledgeFindings struct {
	Procedures    []Procedure `json:"procedures"`
	RoutineIDs    []string    `json:"routine_ids"`
	SectionsFound int         `json:"sections_found"`
}

// Empty reports whether nothing was found.
func (k KnowledgeFindings) Empty() bool {
	return len(k.Procedures) == 0 && len(k.RoutineIDs) == 0 && k.SectionsFound == 0
}

// MarshalJSON keeps empty lists as [] rather than null.
func (k KnowledgeFindings) MarshalJSON() ([]byte, error) {
	type alias KnowledgeFindings
	a := alias(k)
	if a.Procedures == nil {
		a.Procedures = []Procedure{}
	}
	if a.RoutineIDs == nil {
		a.RoutineIDs = []string{}
	}
	return json.Marshal(a)
}

// ServicePlan is the maintenance action derived from a HealthInsight.
type ServicePlan struct {
	Action       string       `json:"action"`
	Urgency      Urgency      `json:"urgency"`
	SourceStatus HealthStatus `json:"source_status"`
	// RequiresAppointment is the explicit scheduling signal for the scheduler.
	RequiresAppointment bool               `json:"requires_appointment"`
	KnowledgeFindings   *KnowledgeFindings `json:"knowledge_findings,omitempty"`
}
