// Package delivery sends composed notifications to the vehicle owner's
// channels once a run has finished. Delivery is never part of the workflow
// itself: a failed delivery does not change the run outcome.
package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/batterycare/core/factory"
)

var (
	// ErrDeliveryFailed wraps transport errors returned by deliverers.
	ErrDeliveryFailed = errors.New("notification delivery failed")
	// ErrPublishTimeout is returned when the broker does not confirm in time.
	ErrPublishTimeout = errors.New("timeout waiting for publish confirmation")
)

// Message is the payload sent for one notification.
type Message struct {
	RunID     string     `json:"run_id"`
	VehicleID string     `json:"vehicle_id"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	Status    string     `json:"status"`
	Urgency   string     `json:"urgency"`
	Dealer    string     `json:"dealer,omitempty"`
	Slot      *time.Time `json:"slot,omitempty"`
	SentAt    time.Time  `json:"sent_at"`
}

// Deliverer sends messages.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) error
	Close() error
}

// NopDeliverer drops every message.
type NopDeliverer struct{}

func (NopDeliverer) Deliver(context.Context, Message) error { return nil }
func (NopDeliverer) Close() error                           { return nil }

var registry = factory.NewRegistry[Deliverer]()

// RegisterDeliverer adds a deliverer factory identified by name.
func RegisterDeliverer(name string, f factory.Factory[Deliverer]) error {
	return registry.Register(name, f)
}

// NewDeliverer creates a Deliverer from its module configuration. An empty
// type yields a NopDeliverer.
func NewDeliverer(cfg factory.ModuleConfig) (Deliverer, error) {
	if cfg.Type == "" {
		return NopDeliverer{}, nil
	}
	return registry.Create(cfg)
}

// Types lists the registered deliverer names.
func Types() []string { return registry.Names() }
