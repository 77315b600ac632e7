package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/batterycare/core/scheduler"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `vehicle_id: "EV-42"
analysis:
  anomaly_threshold: 5
scheduler:
  dealers: ["North", "South"]
  days: 7
  hours: [10, 14]
  seed: 3
  trigger: keyword
knowledge:
  enabled: true
  type: sqlite
  conf:
    path: manual.db
  max_results: 2
metrics:
  sinks:
    - type: "prometheus"
  prometheus_port: ":9100"
delivery:
  type: mqtt
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  qos:
    notification: 1
api:
  address: ":9000"
sentry:
  dsn: ""
  environment: "test"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Scheduler.Seed)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"vehicle_id", cfg.VehicleID, "EV-42"},
		{"anomaly_threshold", cfg.Analysis.Anomaly(), 5.0},
		{"highlight_default", cfg.Analysis.Highlight(), 0.3},
		{"dealers", cfg.Scheduler.Dealers, []string{"North", "South"}},
		{"days", cfg.Scheduler.Days, 7},
		{"hours", cfg.Scheduler.Hours, []int{10, 14}},
		{"seed", *cfg.Scheduler.Seed, int64(3)},
		{"trigger", cfg.Scheduler.Trigger, scheduler.TriggerKeyword},
		{"knowledge_type", cfg.Knowledge.Module().Type, "sqlite"},
		{"knowledge_path", cfg.Knowledge.Module().Conf["path"], "manual.db"},
		{"max_results", cfg.Knowledge.MaxResults, 2},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "prometheus", true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":9100"},
		{"delivery", cfg.Delivery.Type, "mqtt"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"qos", cfg.MQTT.QoS["notification"], byte(1)},
		{"api", cfg.API.Address, ":9000"},
		{"sentry_env", cfg.Sentry.Environment, "test"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.json", `{}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultVehicleID, cfg.VehicleID)
	assert.Equal(t, []string{"Dealer_A", "Dealer_B", "Dealer_C"}, cfg.Scheduler.Dealers)
	assert.Equal(t, 14, cfg.Scheduler.Days)
	assert.Equal(t, scheduler.TriggerFlag, cfg.Scheduler.Trigger)
	assert.Equal(t, 30.0, cfg.Analysis.Anomaly())
	assert.Nil(t, cfg.Scheduler.Seed)
	assert.False(t, cfg.Knowledge.Enabled)
	assert.Empty(t, cfg.Knowledge.Module().Type)
	assert.Equal(t, ":8080", cfg.API.Address)
	assert.Equal(t, "batterycare-"+DefaultVehicleID, cfg.MQTT.ClientID)
	assert.Equal(t, *Default(), *cfg)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_SCHEDULER__SEED", "7")
	t.Setenv("K_VEHICLE_ID", "EV-ENV")
	cfg, err := Load(writeFile(t, "config.yaml", "scheduler:\n  seed: 1\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Scheduler.Seed)
	assert.Equal(t, int64(7), *cfg.Scheduler.Seed)
	assert.Equal(t, "EV-ENV", cfg.VehicleID)
}

func TestLoadExplicitZeroThresholds(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yaml", "analysis:\n  highlight_threshold: 0\n  moderate_threshold: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Analysis.HighlightThreshold)
	assert.Equal(t, 0.0, cfg.Analysis.Highlight())
	assert.Equal(t, 0.0, cfg.Analysis.Moderate())
	assert.Equal(t, 30.0, cfg.Analysis.Anomaly())
	assert.Equal(t, 0.2, cfg.Analysis.Rapid())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "config.toml", ""))
	assert.ErrorContains(t, err, "unsupported")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "scheduler:\n  hours: [25]\n"))
	assert.ErrorContains(t, err, "scheduler")

	_, err = Load(writeFile(t, "bad.yaml", "analysis:\n  moderate_threshold: 0.5\n"))
	assert.ErrorContains(t, err, "analysis")

	_, err = Load(writeFile(t, "bad.yaml", "delivery:\n  type: mqtt\n"))
	assert.ErrorContains(t, err, "broker")
}
