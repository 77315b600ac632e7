package model

import (
	"encoding/json"
	"fmt"
)

// HealthStatus classifies the degradation rate of a battery.
type HealthStatus string

const (
	StatusRapid    HealthStatus = "rapid"
	StatusModerate HealthStatus = "moderate"
	StatusNormal   HealthStatus = "normal"
	StatusUnknown  HealthStatus = "unknown"
)

// Label returns the human readable form used in notifications.
func (s HealthStatus) Label() string {
	switch s {
	case StatusRapid, StatusModerate, StatusNormal:
		return string(s) + " degradation"
	default:
		return "unknown degradation"
	}
}

// ChargeTypeDecline holds the mean drop per charge type. A nil value means the
// partition had no measurable drop.
type ChargeTypeDecline struct {
	FastAvgDrop *float64 `json:"fast_avg_drop"`
	SlowAvgDrop *float64 `json:"slow_avg_drop"`
}

// HealthInsight is the degradation assessment of a telemetry series.
type HealthInsight struct {
	Status              HealthStatus      `json:"status"`
	Recommendation      string            `json:"recommendation"`
	Anomalies           []Date            `json:"anomalies"`
	AverageLossPerCycle *float64          `json:"average_loss_per_cycle"`
	DeclineByChargeType ChargeTypeDecline `json:"decline_by_charge_type"`
	HighlightDates      []Date            `json:"highlight_dates"`
	LatestStateOfHealth float64           `json:"latest_state_of_health"`
	// InsufficientData is set when the series is too short to compute any drop.
	InsufficientData bool `json:"insufficient_data"`
}

// AnomalyCount returns the number of large drops detected.
func (h HealthInsight) AnomalyCount() int { return len(h.Anomalies) }

// AverageLossText formats the average loss, or "unknown" when undefined.
func (h HealthInsight) AverageLossText() string {
	if h.AverageLossPerCycle == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.4f", *h.AverageLossPerCycle)
}

// Clone returns a deep copy so that later stages cannot mutate the insight.
func (h HealthInsight) Clone() HealthInsight {
	out := h
	out.Anomalies = append([]Date(nil), h.Anomalies...)
	out.HighlightDates = append([]Date(nil), h.HighlightDates...)
	out.AverageLossPerCycle = cloneFloat(h.AverageLossPerCycle)
	out.DeclineByChargeType.FastAvgDrop = cloneFloat(h.DeclineByChargeType.FastAvgDrop)
	out.DeclineByChargeType.SlowAvgDrop = cloneFloat(h.DeclineByChargeType.SlowAvgDrop)
	return out
}

// MarshalJSON keeps empty date lists as [] rather than null.
func (h HealthInsight) MarshalJSON() ([]byte, error) {
	type alias HealthInsight
	a := alias(h)
	if a.Anomalies == nil {
		a.Anomalies = []Date{}
	}
	if a.HighlightDates == nil {
		a.HighlightDates = []Date{}
	}
	return json.Marshal(a)
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
