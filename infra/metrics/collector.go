package metrics

import (
	"context"

	"github.com/kilianp07/batterycare/core/events"
	coremetrics "github.com/kilianp07/batterycare/core/metrics"
	"github.com/kilianp07/batterycare/core/logger"
	"github.com/kilianp07/batterycare/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// workflow events. It stops when the context is canceled or the bus is
// closed; the returned channel is closed once it has stopped.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log = logger.OrNop(log)
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("metrics record failed for run %s: %v", ev.EventRunID(), err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event) error {
	switch e := ev.(type) {
	case events.StageEvent:
		return sink.RecordStage(coremetrics.StageRecord{
			RunID:    e.RunID,
			Stage:    e.Stage,
			Outcome:  string(e.Outcome),
			Duration: e.Duration,
			Time:     e.Time,
		})
	case events.RunEvent:
		return sink.RecordRun(coremetrics.RunRecord{
			RunID:       e.RunID,
			Phase:       e.Phase,
			Outcome:     string(e.Outcome),
			Status:      e.Status,
			Urgency:     e.Urgency,
			Appointment: e.Appointment,
			Anomalies:   e.Anomalies,
			LatestSoH:   e.LatestSoH,
			AvgLoss:     e.AvgLoss,
			Duration:    e.Duration,
			Time:        e.Time,
		})
	}
	return nil
}
