package scheduler

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/kilianp07/batterycare/core/logger"
	"github.com/kilianp07/batterycare/core/model"
)

// ErrEmptyPool is returned when an appointment is needed but no slot exists.
var ErrEmptyPool = errors.New("scheduler: availability pool is empty")

// SeededSource returns a factory of random sources that all replay seed.
func SeededSource(seed int64) func() *rand.Rand {
	return func() *rand.Rand { return rand.New(rand.NewSource(seed)) }
}

// RandomSource returns a source seeded from the process-wide generator, so
// successive runs draw independently.
func RandomSource() *rand.Rand {
	return rand.New(rand.NewSource(rand.Int63()))
}

// Source returns the per-run random source factory for c: seeded when a seed
// is configured, independent otherwise.
func (c SchedulerConfig) Source() func() *rand.Rand {
	if c.Seed != nil {
		return SeededSource(*c.Seed)
	}
	return RandomSource
}

// Scheduler turns a service plan into an appointment decision.
type Scheduler struct {
	trigger Trigger
	log     logger.Logger
}

// New returns a Scheduler using t. A nil trigger selects FlagTrigger.
func New(t Trigger, log logger.Logger) *Scheduler {
	if t == nil {
		t = FlagTrigger{}
	}
	return &Scheduler{trigger: t, log: logger.OrNop(log)}
}

// Schedule books a random slot from pool when the plan needs one. The dealer is
// drawn first, then one of its slots, both from rng.
func (s *Scheduler) Schedule(plan model.ServicePlan, pool *Pool, rng *rand.Rand) (model.Appointment, error) {
	if !s.trigger.Needed(plan) {
		return model.Appointment{
			Status:  model.AppointmentNotNeeded,
			Details: model.NoScheduleNeededDetails,
		}, nil
	}
	if pool == nil || rng == nil {
		return model.Appointment{}, fmt.Errorf("scheduler: pool and random source are required")
	}
	dealers := pool.Dealers()
	if len(dealers) == 0 {
		return model.Appointment{}, ErrEmptyPool
	}
	dealer := dealers[rng.Intn(len(dealers))]
	slots := pool.Slots(dealer)
	if len(slots) == 0 {
		return model.Appointment{}, fmt.Errorf("%w: dealer %s", ErrEmptyPool, dealer)
	}
	slot := slots[rng.Intn(len(slots))]

	s.log.Debugw("appointment booked", map[string]any{
		"dealer": dealer,
		"slot":   slot.Format("2006-01-02 15:04"),
	})
	return model.Appointment{
		Status: model.AppointmentScheduled,
		Dealer: model.String(dealer),
		Slot:   &slot,
		Method: model.String(model.MethodAutoSelected),
	}, nil
}
