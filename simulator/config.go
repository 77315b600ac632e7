package simulator

import (
	"errors"
	"time"
)

// Config holds parameters for the telemetry generator.
type Config struct {
	Days            int       `json:"days"`
	Seed            int64     `json:"seed"`
	Start           time.Time `json:"start"`
	FastChargeRatio float64   `json:"fast_charge_ratio"`
	FastDropMin     float64   `json:"fast_drop_min"`
	FastDropMax     float64   `json:"fast_drop_max"`
	SlowDropMin     float64   `json:"slow_drop_min"`
	SlowDropMax     float64   `json:"slow_drop_max"`
	InitialSoH      float64   `json:"initial_soh"`
	FloorSoH        float64   `json:"floor_soh"`
	TempMean        float64   `json:"temp_mean"`
	TempStdDev      float64   `json:"temp_stddev"`
	MaxCyclesPerDay int       `json:"max_cycles_per_day"`
}

// DefaultConfig returns ninety days of data starting on 2025-06-01.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Days == 0 {
		c.Days = 90
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.Start.IsZero() {
		c.Start = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	if c.FastChargeRatio == 0 {
		c.FastChargeRatio = 0.3
	}
	if c.FastDropMax == 0 {
		c.FastDropMin, c.FastDropMax = 0.02, 0.06
	}
	if c.SlowDropMax == 0 {
		c.SlowDropMin, c.SlowDropMax = 0.005, 0.02
	}
	if c.InitialSoH == 0 {
		c.InitialSoH = 100
	}
	if c.FloorSoH == 0 {
		c.FloorSoH = 60
	}
	if c.TempMean == 0 {
		c.TempMean = 25
	}
	if c.TempStdDev == 0 {
		c.TempStdDev = 5
	}
	if c.MaxCyclesPerDay == 0 {
		c.MaxCyclesPerDay = 2
	}
}

// Validate checks generator parameters.
func (c Config) Validate() error {
	if c.Days <= 0 {
		return errors.New("days must be positive")
	}
	if c.FastChargeRatio < 0 || c.FastChargeRatio > 1 {
		return errors.New("fast_charge_ratio must be within [0,1]")
	}
	if c.FastDropMin > c.FastDropMax || c.SlowDropMin > c.SlowDropMax {
		return errors.New("drop ranges must have min <= max")
	}
	if c.FloorSoH > c.InitialSoH {
		return errors.New("floor_soh above initial_soh")
	}
	if c.MaxCyclesPerDay < 1 {
		return errors.New("max_cycles_per_day must be at least 1")
	}
	return nil
}
