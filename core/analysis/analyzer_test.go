package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/batterycare/core/model"
	"github.com/kilianp07/batterycare/infra/logger"
)

var day0 = model.NewDate(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

func series(ct model.ChargeType, soh ...float64) []model.TelemetryRecord {
	out := make([]model.TelemetryRecord, len(soh))
	for i, v := range soh {
		out[i] = model.TelemetryRecord{Date: day0.AddDays(i), StateOfHealth: v, ChargeType: ct, Temperature: 25, ChargeCycles: 1}
	}
	return out
}

func TestAnalyze_Empty(t *testing.T) {
	a := NewAnalyzer(Config{}, logger.NopLogger{})
	_, err := a.Analyze(nil)
	if !errors.Is(err, model.ErrDataInsufficient) {
		t.Fatalf("expected ErrDataInsufficient, got %v", err)
	}
}

func TestAnalyze_SingleRecord(t *testing.T) {
	a := NewAnalyzer(Config{}, logger.NopLogger{})
	ins, err := a.Analyze(series(model.ChargeSlow, 99.456))
	require.NoError(t, err)
	assert.True(t, ins.InsufficientData)
	assert.Nil(t, ins.AverageLossPerCycle)
	assert.Nil(t, ins.DeclineByChargeType.FastAvgDrop)
	assert.Nil(t, ins.DeclineByChargeType.SlowAvgDrop)
	assert.Empty(t, ins.Anomalies)
	assert.Equal(t, model.StatusUnknown, ins.Status)
	assert.Equal(t, RecommendUnknown, ins.Recommendation)
	assert.Equal(t, 99.46, ins.LatestStateOfHealth)
}

func TestAnalyze_MeanOfPairwiseDrops(t *testing.T) {
	a := NewAnalyzer(Config{}, logger.NopLogger{})
	recs := series(model.ChargeSlow, 100, 99.9, 99.7, 99.75, 99.5)
	ins, err := a.Analyze(recs)
	require.NoError(t, err)
	require.NotNil(t, ins.AverageLossPerCycle)
	// drops: 0.1, 0.2, -0.05, 0.25
	assert.InDelta(t, 0.125, *ins.AverageLossPerCycle, 1e-9)
	assert.False(t, ins.InsufficientData)
	assert.Equal(t, model.StatusModerate, ins.Status)
	assert.Equal(t, 99.5, ins.LatestStateOfHealth)
}

func TestAnalyze_SortsInput(t *testing.T) {
	a := NewAnalyzer(Config{}, logger.NopLogger{})
	recs := series(model.ChargeSlow, 100, 99.9, 99.8)
	shuffled := []model.TelemetryRecord{recs[2], recs[0], recs[1]}
	ins, err := a.Analyze(shuffled)
	require.NoError(t, err)
	require.NotNil(t, ins.AverageLossPerCycle)
	assert.InDelta(t, 0.1, *ins.AverageLossPerCycle, 1e-9)
	assert.Equal(t, 99.8, ins.LatestStateOfHealth)
	assert.Equal(t, recs[2], shuffled[0], "input must not be reordered")
}

func TestAnalyze_ChargeTypePartitions(t *testing.T) {
	a := NewAnalyzer(Config{}, logger.NopLogger{})
	recs := series(model.ChargeFast, 100, 99.96, 99.9)
	ins, err := a.Analyze(recs)
	require.NoError(t, err)
	require.NotNil(t, ins.DeclineByChargeType.FastAvgDrop)
	assert.InDelta(t, 0.05, *ins.DeclineByChargeType.FastAvgDrop, 1e-9)
	assert.Nil(t, ins.DeclineByChargeType.SlowAvgDrop, "empty partition must stay undefined")

	recs[1].ChargeType = model.ChargeSlow
	ins, err = a.Analyze(recs)
	require.NoError(t, err)
	require.NotNil(t, ins.DeclineByChargeType.SlowAvgDrop)
	assert.InDelta(t, 0.04, *ins.DeclineByChargeType.SlowAvgDrop, 1e-9)
	assert.InDelta(t, 0.06, *ins.DeclineByChargeType.FastAvgDrop, 1e-9)
}

func TestAnalyze_ThresholdsAreIndependent(t *testing.T) {
	recs := series(model.ChargeSlow, 100, 99.5, 99.4, 60)

	ins, err := NewAnalyzer(Config{}, nil).Analyze(recs)
	require.NoError(t, err)
	require.Len(t, ins.Anomalies, 1)
	assert.Equal(t, day0.AddDays(3), ins.Anomalies[0])
	assert.Equal(t, []model.Date{day0.AddDays(1), day0.AddDays(3)}, ins.HighlightDates)

	ins, err = NewAnalyzer(Config{AnomalyThreshold: model.Float(0.45)}, nil).Analyze(recs)
	require.NoError(t, err)
	assert.Equal(t, []model.Date{day0.AddDays(1), day0.AddDays(3)}, ins.Anomalies)
	assert.Equal(t, []model.Date{day0.AddDays(1), day0.AddDays(3)}, ins.HighlightDates)

	ins, err = NewAnalyzer(Config{HighlightThreshold: model.Float(50)}, nil).Analyze(recs)
	require.NoError(t, err)
	assert.Len(t, ins.Anomalies, 1)
	assert.Empty(t, ins.HighlightDates)
}

func TestAnalyze_InvalidRecord(t *testing.T) {
	recs := series(model.ChargeSlow, 100, 99)
	recs[1].ChargeType = model.ChargeUnknown
	_, err := NewAnalyzer(Config{}, nil).Analyze(recs)
	if !errors.Is(err, model.ErrDataInsufficient) {
		t.Fatalf("expected ErrDataInsufficient, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	cases := []struct {
		avg  *float64
		want model.HealthStatus
	}{
		{model.Float(0.25), model.StatusRapid},
		{model.Float(0.15), model.StatusModerate},
		{model.Float(0.05), model.StatusNormal},
		{model.Float(0.2), model.StatusModerate},
		{model.Float(0.1), model.StatusNormal},
		{model.Float(-0.3), model.StatusNormal},
		{nil, model.StatusUnknown},
	}
	for _, c := range cases {
		if got := a.Classify(c.avg); got != c.want {
			t.Errorf("classify %v: got %s want %s", c.avg, got, c.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	cfg.ModerateThreshold = model.Float(0.5)
	assert.Error(t, cfg.Validate())
}

func TestZeroThresholdsAreKept(t *testing.T) {
	recs := series(model.ChargeSlow, 100, 99.99, 99.98, 99.99)

	cfg := Config{HighlightThreshold: model.Float(0), ModerateThreshold: model.Float(0)}
	cfg.SetDefaults()
	assert.Equal(t, 0.0, *cfg.HighlightThreshold)
	assert.Equal(t, DefaultAnomalyThreshold, *cfg.AnomalyThreshold)

	a := NewAnalyzer(Config{HighlightThreshold: model.Float(0), ModerateThreshold: model.Float(0)}, nil)
	ins, err := a.Analyze(recs)
	require.NoError(t, err)
	assert.Equal(t, []model.Date{day0.AddDays(1), day0.AddDays(2)}, ins.HighlightDates)
	assert.Equal(t, model.StatusModerate, ins.Status)

	ins, err = NewAnalyzer(Config{}, nil).Analyze(recs)
	require.NoError(t, err)
	assert.Empty(t, ins.HighlightDates)
	assert.Equal(t, model.StatusNormal, ins.Status)
}
