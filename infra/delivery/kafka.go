package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"

	core "github.com/kilianp07/batterycare/core/delivery"
	"github.com/kilianp07/batterycare/infra/logger"
)

// KafkaConfig configures the Kafka deliverer.
type KafkaConfig struct {
	Brokers   []string `json:"brokers" yaml:"brokers"`
	Topic     string   `json:"topic" yaml:"topic"`
	ClientID  string   `json:"client_id" yaml:"client_id"`
	TimeoutMS int      `json:"timeout_ms" yaml:"timeout_ms"`
	Retries   int      `json:"retries" yaml:"retries"`
}

// KafkaDeliverer produces each message on a topic keyed by vehicle ID so that
// notifications of one vehicle stay ordered within a partition.
type KafkaDeliverer struct {
	producer sarama.SyncProducer
	topic    string
	log      logger.Logger
}

// ProducerConfig returns the sarama configuration derived from cfg.
func ProducerConfig(cfg KafkaConfig) *sarama.Config {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	if cfg.Retries > 0 {
		sc.Producer.Retry.Max = cfg.Retries
	}
	if cfg.TimeoutMS > 0 {
		sc.Producer.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
		sc.Net.DialTimeout = sc.Producer.Timeout
	}
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}
	return sc
}

// NewKafkaDeliverer connects a synchronous producer to the brokers.
func NewKafkaDeliverer(cfg KafkaConfig) (*KafkaDeliverer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	p, err := sarama.NewSyncProducer(cfg.Brokers, ProducerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewKafkaDelivererWithProducer(p, cfg.Topic), nil
}

// NewKafkaDelivererWithProducer wraps an existing producer. An empty topic
// defaults to "batterycare.notifications".
func NewKafkaDelivererWithProducer(p sarama.SyncProducer, topic string) *KafkaDeliverer {
	if topic == "" {
		topic = "batterycare.notifications"
	}
	return &KafkaDeliverer{producer: p, topic: topic, log: logger.New("kafka_deliverer")}
}

// Deliver sends msg and waits for the broker acknowledgement.
func (d *KafkaDeliverer) Deliver(ctx context.Context, msg core.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	pm := &sarama.ProducerMessage{
		Topic:     d.topic,
		Key:       sarama.StringEncoder(msg.VehicleID),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: msg.SentAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("run_id"), Value: []byte(msg.RunID)},
		},
	}
	partition, offset, err := d.producer.SendMessage(pm)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrDeliveryFailed, err)
	}
	d.log.Debugf("notification %s stored at %s[%d]@%d", msg.RunID, d.topic, partition, offset)
	return nil
}

// Close flushes and closes the producer.
func (d *KafkaDeliverer) Close() error { return d.producer.Close() }
