// Package app assembles the workflow, its collaborators and the ambient
// services (metrics, monitoring, delivery) from the configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kilianp07/batterycare/config"
	"github.com/kilianp07/batterycare/core/analysis"
	"github.com/kilianp07/batterycare/core/delivery"
	"github.com/kilianp07/batterycare/core/events"
	"github.com/kilianp07/batterycare/core/knowledge"
	coremetrics "github.com/kilianp07/batterycare/core/metrics"
	"github.com/kilianp07/batterycare/core/model"
	"github.com/kilianp07/batterycare/core/monitoring"
	"github.com/kilianp07/batterycare/core/notify"
	"github.com/kilianp07/batterycare/core/planner"
	"github.com/kilianp07/batterycare/core/scheduler"
	"github.com/kilianp07/batterycare/core/workflow"
	infradelivery "github.com/kilianp07/batterycare/infra/delivery"
	_ "github.com/kilianp07/batterycare/infra/knowledge"
	"github.com/kilianp07/batterycare/infra/logger"
	inframetrics "github.com/kilianp07/batterycare/infra/metrics"
	inframon "github.com/kilianp07/batterycare/infra/monitoring"
	"github.com/kilianp07/batterycare/internal/eventbus"
)

// EventBuffer is the per-subscriber buffer of the workflow event bus.
const EventBuffer = 256

// Result is the outcome of one service run.
type Result struct {
	State workflow.State
	// Delivered is set when the user message reached the deliverer.
	Delivered bool
	// DeliveryErr is the delivery failure, if any. It never fails the run.
	DeliveryErr error
}

// Service runs the workflow and delivers its notification.
type Service struct {
	cfg       *config.Config
	orch      *workflow.Orchestrator
	bus       *eventbus.Bus[events.Event]
	collected <-chan struct{}
	stop      context.CancelFunc
	sink      coremetrics.MetricsSink
	retriever knowledge.Retriever
	deliverer delivery.Deliverer
	log       logger.Logger
	now       func() time.Time
}

type options struct {
	now       func() time.Time
	newID     func() string
	sink      coremetrics.MetricsSink
	retriever knowledge.Retriever
	deliverer delivery.Deliverer
}

// Option overrides a collaborator built from the configuration.
type Option func(*options)

// WithClock sets the clock used for slot pools, events and messages.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithIDGenerator sets the run identifier generator.
func WithIDGenerator(f func() string) Option { return func(o *options) { o.newID = f } }

// WithMetricsSink replaces the configured sinks.
func WithMetricsSink(s coremetrics.MetricsSink) Option { return func(o *options) { o.sink = s } }

// WithRetriever replaces the configured knowledge retriever.
func WithRetriever(r knowledge.Retriever) Option { return func(o *options) { o.retriever = r } }

// WithDeliverer replaces the configured deliverer.
func WithDeliverer(d delivery.Deliverer) Option { return func(o *options) { o.deliverer = d } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.New("service")

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(mon)

	retriever := o.retriever
	if retriever == nil {
		if retriever, err = knowledge.NewRetriever(cfg.Knowledge.Module()); err != nil {
			return nil, fmt.Errorf("knowledge retriever: %w", err)
		}
	}
	planOpts := []planner.Option{planner.WithTimeout(cfg.Knowledge.Timeout())}
	if _, nop := retriever.(knowledge.NopRetriever); !nop {
		enricher, err := planner.NewKnowledgeEnricher(retriever, cfg.Knowledge.RoutinePattern, cfg.Knowledge.MaxResults)
		if err != nil {
			return nil, fmt.Errorf("knowledge enricher: %w", err)
		}
		planOpts = append(planOpts, planner.WithEnricher(enricher))
	}

	trigger, err := scheduler.NewTrigger(cfg.Scheduler.Trigger)
	if err != nil {
		return nil, err
	}

	sink := o.sink
	if sink == nil {
		if sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}

	deliverer := o.deliverer
	if deliverer == nil {
		if deliverer, err = newDeliverer(cfg); err != nil {
			return nil, fmt.Errorf("deliverer: %w", err)
		}
	}

	bus := eventbus.NewWithBuffer[events.Event](EventBuffer)
	orch, err := workflow.NewOrchestrator([]workflow.Stage{
		workflow.AnalyzeStage{Analyzer: analysis.NewAnalyzer(cfg.Analysis, logger.New("analyzer"))},
		workflow.PlanStage{Planner: planner.New(logger.New("planner"), planOpts...)},
		workflow.ScheduleStage{
			Scheduler: scheduler.New(trigger, logger.New("scheduler")),
			Config:    cfg.Scheduler,
			Rand:      cfg.Scheduler.Source(),
			Now:       o.now,
		},
		workflow.NotifyStage{Composer: notify.New(logger.New("notify"))},
	},
		workflow.WithClock(o.now),
		workflow.WithIDGenerator(o.newID),
		workflow.WithEventBus(bus),
		workflow.WithLogger(logger.New("workflow")),
	)
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Service{
		cfg:       cfg,
		orch:      orch,
		bus:       bus,
		collected: inframetrics.StartEventCollector(ctx, bus, sink, logger.New("metrics")),
		stop:      stop,
		sink:      sink,
		retriever: retriever,
		deliverer: deliverer,
		log:       log,
		now:       o.now,
	}, nil
}

// newDeliverer builds the configured deliverer. An mqtt deliverer without its
// own broker settings reuses the top level mqtt section.
func newDeliverer(cfg *config.Config) (delivery.Deliverer, error) {
	if cfg.Delivery.Type == "mqtt" && cfg.Delivery.Conf["broker"] == nil {
		prefix, _ := cfg.Delivery.Conf["topic_prefix"].(string)
		return infradelivery.NewMQTTDeliverer(cfg.MQTT, prefix)
	}
	return delivery.NewDeliverer(cfg.Delivery)
}

// Run executes the workflow over records and delivers the resulting message.
// A delivery failure is logged and reported in the Result only.
func (s *Service) Run(ctx context.Context, records []model.TelemetryRecord) (Result, error) {
	st, err := s.orch.Run(ctx, records)
	res := Result{State: st}
	if err != nil {
		var serr *workflow.StageError
		if errors.Is(err, workflow.ErrStageFailure) && errors.As(err, &serr) {
			monitoring.CaptureException(err, map[string]string{"stage": string(serr.Stage), "run_id": st.RunID})
		}
		return res, err
	}
	n := st.Notification
	if n == nil || n.Message == nil {
		return res, nil
	}
	if err := s.deliverer.Deliver(ctx, s.message(st)); err != nil {
		s.log.Errorf("delivery of run %s failed: %v", st.RunID, err)
		monitoring.CaptureException(err, map[string]string{"component": "delivery", "run_id": st.RunID})
		res.DeliveryErr = err
		return res, nil
	}
	res.Delivered = true
	return res, nil
}

func (s *Service) message(st workflow.State) delivery.Message {
	msg := delivery.Message{
		RunID:     st.RunID,
		VehicleID: s.cfg.VehicleID,
		Subject:   st.Notification.Subject,
		Body:      *st.Notification.Message,
		SentAt:    s.now(),
	}
	if st.Insight != nil {
		msg.Status = string(st.Insight.Status)
	}
	if st.Plan != nil {
		msg.Urgency = string(st.Plan.Urgency)
	}
	if a := st.Appointment; a != nil && a.Scheduled() {
		msg.Dealer = *a.Dealer
		msg.Slot = a.Slot
	}
	return msg
}

// Close flushes pending metrics and releases every collaborator.
func (s *Service) Close() error {
	s.bus.Close()
	select {
	case <-s.collected:
	case <-time.After(2 * time.Second):
		s.log.Warnf("metrics collector did not stop in time")
	}
	s.stop()
	coremetrics.Close(s.sink)
	var errs []error
	if err := s.deliverer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("deliverer: %w", err))
	}
	if c, ok := s.retriever.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("retriever: %w", err))
		}
	}
	monitoring.Flush(2 * time.Second)
	return errors.Join(errs...)
}
