package analysis

import "fmt"

// Default thresholds on the state of health percentage scale.
const (
	DefaultAnomalyThreshold   = 30.0
	DefaultHighlightThreshold = 0.3
	DefaultRapidThreshold     = 0.2
	DefaultModerateThreshold  = 0.1
)

// Config holds the tunable thresholds of the analyzer. A nil threshold takes
// its default; an explicit zero is kept.
type Config struct {
	// AnomalyThreshold flags a single drop as an anomaly.
	AnomalyThreshold *float64 `json:"anomaly_threshold,omitempty"`
	// HighlightThreshold flags smaller drops worth showing to the user.
	HighlightThreshold *float64 `json:"highlight_threshold,omitempty"`
	RapidThreshold     *float64 `json:"rapid_threshold,omitempty"`
	ModerateThreshold  *float64 `json:"moderate_threshold,omitempty"`
}

// SetDefaults fills unset thresholds.
func (c *Config) SetDefaults() {
	setDefault(&c.AnomalyThreshold, DefaultAnomalyThreshold)
	setDefault(&c.HighlightThreshold, DefaultHighlightThreshold)
	setDefault(&c.RapidThreshold, DefaultRapidThreshold)
	setDefault(&c.ModerateThreshold, DefaultModerateThreshold)
}

func setDefault(p **float64, v float64) {
	if *p == nil {
		*p = &v
	}
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Anomaly returns the effective anomaly threshold.
func (c Config) Anomaly() float64 { return valueOr(c.AnomalyThreshold, DefaultAnomalyThreshold) }

// Highlight returns the effective highlight threshold.
func (c Config) Highlight() float64 {
	return valueOr(c.HighlightThreshold, DefaultHighlightThreshold)
}

// Rapid returns the effective rapid degradation threshold.
func (c Config) Rapid() float64 { return valueOr(c.RapidThreshold, DefaultRapidThreshold) }

// Moderate returns the effective moderate degradation threshold.
func (c Config) Moderate() float64 { return valueOr(c.ModerateThreshold, DefaultModerateThreshold) }

// Validate checks threshold ordering.
func (c Config) Validate() error {
	if c.Anomaly() < 0 || c.Highlight() < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	if c.Moderate() > c.Rapid() {
		return fmt.Errorf("moderate_threshold %.3f > rapid_threshold %.3f", c.Moderate(), c.Rapid())
	}
	return nil
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}
