// Package simulator generates synthetic battery telemetry. It replaces a real
// fleet feed for demos and tests.
package simulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/kilianp07/batterycare/core/model"
)

// Battery models the state of health of one pack as it is charged day after
// day. Fast charges wear the pack faster than slow ones.
type Battery struct {
	SoH float64
	cfg Config
	rng *rand.Rand
}

// NewBattery returns a Battery at cfg.InitialSoH drawing from rng.
func NewBattery(cfg Config, rng *rand.Rand) *Battery {
	return &Battery{SoH: cfg.InitialSoH, cfg: cfg, rng: rng}
}

// Charge applies one day of charging and returns the resulting record.
func (b *Battery) Charge(day time.Time) model.TelemetryRecord {
	temp := b.rng.NormFloat64()*b.cfg.TempStdDev + b.cfg.TempMean
	ct := model.ChargeSlow
	lo, hi := b.cfg.SlowDropMin, b.cfg.SlowDropMax
	if b.rng.Float64() < b.cfg.FastChargeRatio {
		ct = model.ChargeFast
		lo, hi = b.cfg.FastDropMin, b.cfg.FastDropMax
	}
	b.SoH = math.Max(b.SoH-(lo+b.rng.Float64()*(hi-lo)), b.cfg.FloorSoH)
	return model.TelemetryRecord{
		Date:          model.NewDate(day),
		Temperature:   round2(temp),
		ChargeType:    ct,
		StateOfHealth: round2(b.SoH),
		ChargeCycles:  1 + b.rng.Intn(b.cfg.MaxCyclesPerDay),
	}
}

// Generate returns cfg.Days daily records. The same config always yields the
// same series.
func Generate(cfg Config) ([]model.TelemetryRecord, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := NewBattery(cfg, rand.New(rand.NewSource(cfg.Seed)))
	out := make([]model.TelemetryRecord, 0, cfg.Days)
	for i := 0; i < cfg.Days; i++ {
		out = append(out, b.Charge(cfg.Start.AddDate(0, 0, i)))
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
