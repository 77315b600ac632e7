package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/batterycare/core/metrics"
	"github.com/kilianp07/batterycare/infra/logger"
)

// InfluxSink writes workflow points to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordStage writes one workflow_stage point.
func (s *InfluxSink) RecordStage(rec coremetrics.StageRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("workflow_stage").
		AddTag("run_id", rec.RunID).
		AddTag("stage", rec.Stage).
		AddTag("outcome", rec.Outcome).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRun writes one workflow_run point, plus a battery_insight point when
// the run got past analysis.
func (s *InfluxSink) RecordRun(rec coremetrics.RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	run := write.NewPointWithMeasurement("workflow_run").
		AddTag("run_id", rec.RunID).
		AddTag("outcome", rec.Outcome).
		AddTag("phase", rec.Phase).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		AddField("appointment", rec.Appointment).
		SetTime(rec.Time)
	points := []*write.Point{run}
	if rec.Status != "" {
		p := write.NewPointWithMeasurement("battery_insight").
			AddTag("run_id", rec.RunID).
			AddTag("status", rec.Status).
			AddField("latest_soh", round3(rec.LatestSoH)).
			AddField("anomalies", rec.Anomalies)
		if rec.AvgLoss != nil {
			p = p.AddField("avg_loss", *rec.AvgLoss)
		}
		if rec.Urgency != "" {
			p = p.AddTag("urgency", rec.Urgency)
		}
		points = append(points, p.SetTime(rec.Time))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
