// Package delivery provides the notification deliverers registered with the
// core delivery registry.
package delivery

import (
	core "github.com/kilianp07/batterycare/core/delivery"
	"github.com/kilianp07/batterycare/core/factory"
	"github.com/kilianp07/batterycare/infra/mqtt"
)

func init() {
	_ = core.RegisterDeliverer("none", func(map[string]any) (core.Deliverer, error) {
		return core.NopDeliverer{}, nil
	})
	_ = core.RegisterDeliverer("mqtt", func(conf map[string]any) (core.Deliverer, error) {
		var c mqtt.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		var t struct {
			TopicPrefix string `json:"topic_prefix"`
		}
		if err := factory.Decode(conf, &t); err != nil {
			return nil, err
		}
		return NewMQTTDeliverer(c, t.TopicPrefix)
	})
	_ = core.RegisterDeliverer("kafka", func(conf map[string]any) (core.Deliverer, error) {
		var c KafkaConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewKafkaDeliverer(c)
	})
}
