// Package mqtt publishes notification payloads to an MQTT broker using the
// Eclipse Paho client.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/batterycare/core/delivery"
	"github.com/kilianp07/batterycare/core/monitoring"
	"github.com/kilianp07/batterycare/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string          `json:"broker" yaml:"broker"`
	ClientID   string          `json:"client_id" yaml:"client_id"`
	Username   string          `json:"username" yaml:"username"`
	Password   string          `json:"password" yaml:"password"`
	UseTLS     bool            `json:"use_tls" yaml:"use_tls"`
	ClientCert string          `json:"client_cert" yaml:"client_cert"`
	ClientKey  string          `json:"client_key" yaml:"client_key"`
	CABundle   string          `json:"ca_bundle" yaml:"ca_bundle"`
	AuthMethod string          `json:"auth_method" yaml:"auth_method"`
	QoS        map[string]byte `json:"qos" yaml:"qos"`
	LWTTopic   string          `json:"lwt_topic" yaml:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload" yaml:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos" yaml:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain" yaml:"lwt_retain"`
	MaxRetries int             `json:"max_retries" yaml:"max_retries"`
	BackoffMS  int             `json:"backoff_ms" yaml:"backoff_ms"`
	TimeoutMS  int             `json:"timeout_ms" yaml:"timeout_ms"`
	TLSConfig  *tls.Config     `json:"-" yaml:"-"`
}

const (
	defaultRetries = 3
	defaultBackoff = 100 * time.Millisecond
	defaultTimeout = 5 * time.Second
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Publisher sends raw payloads with per-kind QoS, retrying failed attempts
// with exponential backoff.
type Publisher struct {
	cli        pahoClient
	qos        map[string]byte
	log        logger.Logger
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	p := &Publisher{
		qos:        cfg.QoS,
		log:        log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		timeout:    time.Duration(cfg.TimeoutMS) * time.Millisecond,
	}
	if p.maxRetries <= 0 {
		p.maxRetries = defaultRetries
	}
	if p.backoff <= 0 {
		p.backoff = defaultBackoff
	}
	if p.timeout <= 0 {
		p.timeout = defaultTimeout
	}

	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
		monitoring.CaptureException(err, map[string]string{"component": "mqtt"})
	}
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) { log.Warnf("reconnecting to MQTT broker") }

	c := newMQTTClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(p.timeout) {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, delivery.ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, err)
	}
	p.cli = c
	return p, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Publish sends payload to topic. qosKey selects the QoS from the configured
// map and defaults to 0.
func (p *Publisher) Publish(ctx context.Context, topic, qosKey string, payload []byte) error {
	qos := p.qos[qosKey]
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		token := p.cli.Publish(topic, qos, false, payload)
		if !token.WaitTimeout(p.timeout) {
			publishErr = delivery.ErrPublishTimeout
		} else {
			publishErr = token.Error()
		}
		if publishErr == nil {
			p.log.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == p.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	monitoring.CaptureException(publishErr, map[string]string{"component": "mqtt", "topic": topic})
	return fmt.Errorf("%w: %w", delivery.ErrDeliveryFailed, publishErr)
}

// Disconnect gracefully closes the MQTT connection.
func (p *Publisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
