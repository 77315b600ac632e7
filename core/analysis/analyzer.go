package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/batterycare/core/logger"
	"github.com/kilianp07/batterycare/core/model"
)

// Recommendations attached to each status.
const (
	RecommendRapid    = "Schedule battery inspection immediately."
	RecommendModerate = "Monitor battery health closely."
	RecommendNormal   = "No immediate action required."
	RecommendUnknown  = "Insufficient telemetry to assess degradation."
)

// Drop is the state of health lost between a reading and the previous one.
// Negative values mean the reading went up.
type Drop struct {
	Date       model.Date
	ChargeType model.ChargeType
	Value      float64
}

// Analyzer computes HealthInsights. It holds no state between calls.
type Analyzer struct {
	cfg Config
	log logger.Logger
}

// NewAnalyzer returns an Analyzer using cfg. Unset thresholds take defaults.
func NewAnalyzer(cfg Config, log logger.Logger) *Analyzer {
	cfg.SetDefaults()
	return &Analyzer{cfg: cfg, log: logger.OrNop(log)}
}

// Config returns the effective thresholds.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze derives the insight for the series. The input is not modified.
func (a *Analyzer) Analyze(records []model.TelemetryRecord) (model.HealthInsight, error) {
	if len(records) == 0 {
		return model.HealthInsight{}, fmt.Errorf("%w: empty telemetry series", model.ErrDataInsufficient)
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return model.HealthInsight{}, fmt.Errorf("%w: record %d: %v", model.ErrDataInsufficient, i, err)
		}
	}

	sorted := SortByDate(records)
	drops := Drops(sorted)

	insight := model.HealthInsight{
		Anomalies:           datesAbove(drops, a.cfg.Anomaly()),
		HighlightDates:      datesAbove(drops, a.cfg.Highlight()),
		AverageLossPerCycle: meanDrop(drops, nil),
		LatestStateOfHealth: round2(sorted[len(sorted)-1].StateOfHealth),
		InsufficientData:    len(drops) == 0,
	}
	fast, slow := model.ChargeFast, model.ChargeSlow
	insight.DeclineByChargeType = model.ChargeTypeDecline{
		FastAvgDrop: meanDrop(drops, &fast),
		SlowAvgDrop: meanDrop(drops, &slow),
	}
	insight.Status = a.Classify(insight.AverageLossPerCycle)
	insight.Recommendation = Recommendation(insight.Status)

	a.log.Debugw("battery insight computed", map[string]any{
		"records":      len(sorted),
		"status":       string(insight.Status),
		"anomalies":    len(insight.Anomalies),
		"highlights":   len(insight.HighlightDates),
		"latest_soh":   insight.LatestStateOfHealth,
		"avg_loss":     insight.AverageLossText(),
		"insufficient": insight.InsufficientData,
	})
	return insight, nil
}

// Classify maps an average loss per cycle to a status. A nil average is unknown.
func (a *Analyzer) Classify(avg *float64) model.HealthStatus {
	switch {
	case avg == nil || math.IsNaN(*avg):
		return model.StatusUnknown
	case *avg > a.cfg.Rapid():
		return model.StatusRapid
	case *avg > a.cfg.Moderate():
		return model.StatusModerate
	default:
		return model.StatusNormal
	}
}

// Recommendation returns the advice attached to a status.
func Recommendation(s model.HealthStatus) string {
	switch s {
	case model.StatusRapid:
		return RecommendRapid
	case model.StatusModerate:
		return RecommendModerate
	case model.StatusNormal:
		return RecommendNormal
	default:
		return RecommendUnknown
	}
}

// SortByDate returns a copy of records ordered by ascending date. Records with
// the same date keep their input order.
func SortByDate(records []model.TelemetryRecord) []model.TelemetryRecord {
	out := make([]model.TelemetryRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Drops computes previous minus current state of health for every record after
// the first. The drop is attributed to the later record's date and charge type.
func Drops(sorted []model.TelemetryRecord) []Drop {
	if len(sorted) < 2 {
		return nil
	}
	drops := make([]Drop, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		drops = append(drops, Drop{
			Date:       sorted[i].Date,
			ChargeType: sorted[i].ChargeType,
			Value:      sorted[i-1].StateOfHealth - sorted[i].StateOfHealth,
		})
	}
	return drops
}

func datesAbove(drops []Drop, threshold float64) []model.Date {
	var out []model.Date
	for _, d := range drops {
		if d.Value > threshold {
			out = append(out, d.Date)
		}
	}
	return out
}

// meanDrop averages drops, optionally restricted to one charge type. It
// returns nil when no drop qualifies.
func meanDrop(drops []Drop, ct *model.ChargeType) *float64 {
	values := make([]float64, 0, len(drops))
	for _, d := range drops {
		if ct != nil && d.ChargeType != *ct {
			continue
		}
		values = append(values, d.Value)
	}
	if len(values) == 0 {
		return nil
	}
	return model.Float(stat.Mean(values, nil))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
