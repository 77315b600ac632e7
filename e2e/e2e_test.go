package e2e

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/batterycare/app"
	"github.com/kilianp07/batterycare/config"
	"github.com/kilianp07/batterycare/core/delivery"
	"github.com/kilianp07/batterycare/core/factory"
	"github.com/kilianp07/batterycare/core/model"
	"github.com/kilianp07/batterycare/simulator"
)

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"
)

// junitReport is a minimal JUnit XML report so CI systems can display the
// results of the suite.
type junitReport struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string  `xml:"name,attr"`
	Failure *string `xml:"failure,omitempty"`
	Time    float64 `xml:"time,attr"`
}

func writeJUnit(path string, rep junitReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(rep)
}

// startInflux starts an initialised InfluxDB 2.7 container and returns its
// base URL.
func startInflux(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto spins up a basic Mosquitto broker allowing anonymous clients.
func startMosquitto(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:1.6",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

// Test_E2E_WorkflowRun runs the service against real InfluxDB and Mosquitto
// instances: the metrics land in Influx and the user message on the vehicle
// notification topic.
func Test_E2E_WorkflowRun(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	started := time.Now()

	influxURL := startInflux(ctx, t)
	brokerURL := startMosquitto(ctx, t)

	influx := NewInfluxClient(influxURL, influxOrg, influxBucket, influxToken)
	defer influx.Close()
	require.NoError(t, influx.SetupBucket(ctx))

	received := make(chan []byte, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(brokerURL).SetClientID("e2e-sub"))
	tok := sub.Connect()
	require.True(t, tok.WaitTimeout(10*time.Second))
	require.NoError(t, tok.Error())
	defer sub.Disconnect(100)
	tok = sub.Subscribe("batterycare/+/notification", 1, func(_ paho.Client, m paho.Message) { received <- m.Payload() })
	require.True(t, tok.WaitTimeout(10*time.Second))
	require.NoError(t, tok.Error())

	cfg := config.Default()
	cfg.VehicleID = "EV-E2E"
	cfg.Scheduler.Trigger = "keyword"
	cfg.Analysis.ModerateThreshold = model.Float(0.001)
	cfg.Analysis.RapidThreshold = model.Float(0.002)
	cfg.MQTT.Broker = brokerURL
	cfg.MQTT.QoS = map[string]byte{"notification": 1}
	cfg.Delivery = factory.ModuleConfig{Type: "mqtt"}
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "influx", Conf: map[string]any{
		"url": influxURL, "token": influxToken, "org": influxOrg, "bucket": influxBucket,
	}}}

	svc, err := app.New(cfg)
	require.NoError(t, err)
	records, err := simulator.Generate(simulator.Config{Days: 90, Seed: 42})
	require.NoError(t, err)

	res, err := svc.Run(ctx, records)
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	require.True(t, res.State.Appointment.Scheduled())
	assert.True(t, res.Delivered)

	select {
	case payload := <-received:
		var msg delivery.Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, "EV-E2E", msg.VehicleID)
		assert.Equal(t, res.State.RunID, msg.RunID)
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for notification")
	}

	stages, err := influx.CountPoints(ctx, "workflow_stage", "10m")
	require.NoError(t, err)
	assert.Positive(t, stages)
	insights, err := influx.CountPoints(ctx, "battery_insight", "10m")
	require.NoError(t, err)
	assert.Positive(t, insights)

	rep := junitReport{Name: "e2e", Tests: 1, Cases: []junitTestCase{{Name: t.Name(), Time: time.Since(started).Seconds()}}}
	if err := writeJUnit(filepath.Join(t.TempDir(), "e2e.xml"), rep); err != nil {
		t.Logf("write junit: %v", err)
	}
}
