// Package config loads the batterycare configuration from a YAML or JSON file
// with optional K_ prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/batterycare/core/analysis"
	"github.com/kilianp07/batterycare/core/factory"
	"github.com/kilianp07/batterycare/core/knowledge"
	"github.com/kilianp07/batterycare/core/metrics"
	"github.com/kilianp07/batterycare/core/scheduler"
	"github.com/kilianp07/batterycare/infra/monitoring"
	"github.com/kilianp07/batterycare/infra/mqtt"
)

// DefaultVehicleID identifies the vehicle when none is configured.
const DefaultVehicleID = "EV-0001"

type Config struct {
	VehicleID string                    `json:"vehicle_id"`
	Analysis  analysis.Config           `json:"analysis"`
	Scheduler scheduler.SchedulerConfig `json:"scheduler"`
	Knowledge KnowledgeConfig           `json:"knowledge"`
	Metrics   metrics.Config            `json:"metrics"`
	Delivery  factory.ModuleConfig      `json:"delivery"`
	MQTT      mqtt.Config               `json:"mqtt"`
	API       APIConfig                 `json:"api"`
	Sentry    monitoring.Config         `json:"sentry"`
}

// KnowledgeConfig selects the optional knowledge retriever used to enrich
// service plans.
type KnowledgeConfig struct {
	Enabled        bool           `json:"enabled"`
	Type           string         `json:"type"`
	Conf           map[string]any `json:"conf"`
	MaxResults     int            `json:"max_results"`
	TimeoutSeconds int            `json:"timeout_seconds"`
	RoutinePattern string         `json:"routine_pattern"`
}

// Module returns the retriever module configuration. A disabled section
// yields an empty module.
func (c KnowledgeConfig) Module() factory.ModuleConfig {
	if !c.Enabled {
		return factory.ModuleConfig{}
	}
	return factory.ModuleConfig{Type: c.Type, Conf: c.Conf}
}

// Timeout returns the per-lookup deadline.
func (c KnowledgeConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SetDefaults applies sane defaults.
func (c *KnowledgeConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "sqlite"
	}
	if c.MaxResults <= 0 {
		c.MaxResults = knowledge.DefaultMaxResults
	}
	if c.RoutinePattern == "" {
		c.RoutinePattern = knowledge.DefaultRoutinePattern
	}
}

// APIConfig configures the HTTP trigger.
type APIConfig struct {
	Address string `json:"address"`
}

// SetDefaults fills unset sections.
func (c *Config) SetDefaults() {
	if c.VehicleID == "" {
		c.VehicleID = DefaultVehicleID
	}
	c.Analysis.SetDefaults()
	c.Scheduler.SetDefaults()
	c.Knowledge.SetDefaults()
	if c.API.Address == "" {
		c.API.Address = ":8080"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "batterycare-" + c.VehicleID
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if c.Knowledge.Enabled && c.Knowledge.Type == "" {
		return fmt.Errorf("knowledge: type is required when enabled")
	}
	if c.Delivery.Type == "mqtt" && c.MQTT.Broker == "" && c.Delivery.Conf["broker"] == nil {
		return fmt.Errorf("delivery: mqtt requires a broker")
	}
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	c.SetDefaults()
	return &c
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
