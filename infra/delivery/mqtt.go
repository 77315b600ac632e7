package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	core "github.com/kilianp07/batterycare/core/delivery"
	"github.com/kilianp07/batterycare/infra/mqtt"
)

// QoSKey selects the QoS level used for notifications in the MQTT config.
const QoSKey = "notification"

// publisher is the subset of mqtt.Publisher used for delivery.
type publisher interface {
	Publish(ctx context.Context, topic, qosKey string, payload []byte) error
	Disconnect()
}

// MQTTDeliverer publishes each message as JSON on a per-vehicle topic.
type MQTTDeliverer struct {
	pub    publisher
	prefix string
}

// NewMQTTDeliverer connects to the broker and returns a deliverer publishing
// under prefix. An empty prefix defaults to "batterycare".
func NewMQTTDeliverer(cfg mqtt.Config, prefix string) (*MQTTDeliverer, error) {
	pub, err := mqtt.NewPublisher(cfg)
	if err != nil {
		return nil, err
	}
	return newMQTTDeliverer(pub, prefix), nil
}

func newMQTTDeliverer(pub publisher, prefix string) *MQTTDeliverer {
	if prefix == "" {
		prefix = "batterycare"
	}
	return &MQTTDeliverer{pub: pub, prefix: prefix}
}

// Topic returns the topic used for a vehicle.
func (d *MQTTDeliverer) Topic(vehicleID string) string {
	return fmt.Sprintf("%s/%s/notification", d.prefix, vehicleID)
}

// Deliver publishes msg.
func (d *MQTTDeliverer) Deliver(ctx context.Context, msg core.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return d.pub.Publish(ctx, d.Topic(msg.VehicleID), QoSKey, payload)
}

// Close disconnects from the broker.
func (d *MQTTDeliverer) Close() error {
	d.pub.Disconnect()
	return nil
}
