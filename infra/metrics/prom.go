package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/batterycare/core/metrics"
)

// PromSink records workflow metrics in Prometheus collectors.
type PromSink struct {
	stages    *prometheus.CounterVec
	stageTime *prometheus.HistogramVec
	runs      *prometheus.CounterVec
	soh       prometheus.Gauge
	avgLoss   prometheus.Gauge
}

// NewPromSink registers workflow metrics on the default Prometheus registerer.
// The Prometheus server should be started separately with StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	stages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batterycare_stage_total",
		Help: "Stage attempts by stage and outcome",
	}, []string{"stage", "outcome"})
	stageTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "batterycare_stage_duration_seconds",
		Help:    "Time spent in each stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batterycare_runs_total",
		Help: "Workflow runs by outcome, health status and appointment status",
	}, []string{"outcome", "status", "appointment"})
	soh := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "batterycare_latest_state_of_health_percent",
		Help: "State of health reported by the last analyzed run",
	})
	avgLoss := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "batterycare_average_loss_per_cycle",
		Help: "Average state of health loss per reading in the last analyzed run",
	})

	var err error
	if stages, err = register(reg, stages); err != nil {
		return nil, err
	}
	if stageTime, err = register(reg, stageTime); err != nil {
		return nil, err
	}
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if soh, err = register(reg, soh); err != nil {
		return nil, err
	}
	if avgLoss, err = register(reg, avgLoss); err != nil {
		return nil, err
	}
	return &PromSink{stages: stages, stageTime: stageTime, runs: runs, soh: soh, avgLoss: avgLoss}, nil
}

// register reuses an existing collector when one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordStage counts the attempt and observes its duration.
func (s *PromSink) RecordStage(rec coremetrics.StageRecord) error {
	s.stages.WithLabelValues(rec.Stage, rec.Outcome).Inc()
	s.stageTime.WithLabelValues(rec.Stage).Observe(rec.Duration.Seconds())
	return nil
}

// RecordRun counts the run and updates the health gauges when the run got
// past analysis.
func (s *PromSink) RecordRun(rec coremetrics.RunRecord) error {
	s.runs.WithLabelValues(rec.Outcome, rec.Status, rec.Appointment).Inc()
	if rec.Status != "" {
		s.soh.Set(rec.LatestSoH)
	}
	if rec.AvgLoss != nil {
		s.avgLoss.Set(*rec.AvgLoss)
	}
	return nil
}
