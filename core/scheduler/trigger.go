package scheduler

import (
	"fmt"
	"strings"

	"github.com/kilianp07/batterycare/core/model"
)

// Trigger decides whether a plan needs an appointment.
type Trigger interface {
	Needed(plan model.ServicePlan) bool
}

// FlagTrigger follows the plan's RequiresAppointment flag.
type FlagTrigger struct{}

func (FlagTrigger) Needed(plan model.ServicePlan) bool { return plan.RequiresAppointment }

// KeywordTrigger fires when the action text mentions "schedule", ignoring case.
type KeywordTrigger struct{}

func (KeywordTrigger) Needed(plan model.ServicePlan) bool {
	return strings.Contains(strings.ToLower(plan.Action), "schedule")
}

// NewTrigger returns the trigger registered under name. An empty name selects
// the flag trigger.
func NewTrigger(name string) (Trigger, error) {
	switch strings.ToLower(name) {
	case "", TriggerFlag:
		return FlagTrigger{}, nil
	case TriggerKeyword:
		return KeywordTrigger{}, nil
	default:
		return nil, fmt.Errorf("scheduler: unknown trigger %q", name)
	}
}
