package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Trigger names accepted in configuration.
const (
	TriggerFlag    = "flag"
	TriggerKeyword = "keyword"
)

// SchedulerConfig defines the availability pool and the scheduling rule.
type SchedulerConfig struct {
	Dealers []string `json:"dealers" yaml:"dealers"`
	Days    int      `json:"days" yaml:"days"`
	Hours   []int    `json:"hours" yaml:"hours"`
	// Seed makes every run draw the same appointment. Unset in production.
	Seed    *int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
	Trigger string   `json:"trigger" yaml:"trigger"`
}

// DefaultConfig returns three dealers with four slots a day over two weeks.
func DefaultConfig() SchedulerConfig {
	var c SchedulerConfig
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *SchedulerConfig) SetDefaults() {
	if len(c.Dealers) == 0 {
		c.Dealers = []string{"Dealer_A", "Dealer_B", "Dealer_C"}
	}
	if c.Days == 0 {
		c.Days = 14
	}
	if len(c.Hours) == 0 {
		c.Hours = []int{9, 11, 13, 15}
	}
	if c.Trigger == "" {
		c.Trigger = TriggerFlag
	}
}

// Validate checks the pool can be built.
func (c SchedulerConfig) Validate() error {
	if len(c.Dealers) == 0 {
		return errors.New("scheduler: at least one dealer is required")
	}
	seen := make(map[string]struct{}, len(c.Dealers))
	for _, d := range c.Dealers {
		if strings.TrimSpace(d) == "" {
			return errors.New("scheduler: empty dealer name")
		}
		if _, dup := seen[d]; dup {
			return fmt.Errorf("scheduler: duplicate dealer %q", d)
		}
		seen[d] = struct{}{}
	}
	if c.Days <= 0 {
		return errors.New("scheduler: days must be positive")
	}
	if len(c.Hours) == 0 {
		return errors.New("scheduler: at least one hour is required")
	}
	for _, h := range c.Hours {
		if h < 0 || h > 23 {
			return fmt.Errorf("scheduler: hour %d out of range", h)
		}
	}
	if _, err := NewTrigger(c.Trigger); err != nil {
		return err
	}
	return nil
}

// LoadConfig loads SchedulerConfig from a JSON or YAML file.
func LoadConfig(path string) (SchedulerConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SchedulerConfig{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var cfg SchedulerConfig
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return SchedulerConfig{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	return cfg, err
}

// DecodeConfig reads from r to decode a SchedulerConfig.
func DecodeConfig(r io.Reader, format string) (SchedulerConfig, error) {
	var cfg SchedulerConfig
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		dec := json.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	return cfg, nil
}
