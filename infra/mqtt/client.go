package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/peakguard/core/model"
	"github.com/kilianp07/peakguard/core/telemetry"
	"github.com/kilianp07/peakguard/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker         string `json:"broker"`
	ClientID       string `json:"client_id"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	TelemetryTopic string `json:"telemetry_topic"`
	ActionTopic    string `json:"action_topic"`
	UseTLS         bool   `json:"use_tls"`
	ClientCert     string `json:"client_cert"`
	ClientKey      string `json:"client_key"`
	CABundle       string `json:"ca_bundle"`
	QoS            byte   `json:"qos"`
	LWTTopic       string `json:"lwt_topic"`
	LWTPayload     string `json:"lwt_payload"`

	TLSConfig *tls.Config `json:"-"`
}

// SetDefaults applies the default topic layout.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "peakguard"
	}
	if c.TelemetryTopic == "" {
		c.TelemetryTopic = "peakguard/telemetry/+"
	}
	if c.ActionTopic == "" {
		c.ActionTopic = "peakguard/actions"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements telemetry.Source and telemetry.ActionPublisher over
// Eclipse Paho.
type PahoClient struct {
	cli      pahoClient
	cfg      Config
	messages chan telemetry.Message
	log      logger.Logger
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker and subscribes to the telemetry
// topic.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		cfg:      cfg,
		messages: make(chan telemetry.Message, 16),
		log:      log,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(cfg.TelemetryTopic, cfg.QoS, pc.onTelemetry); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.QoS, false)
	}
	if cfg.UseTLS {
		tlsCfg, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

func buildTLSConfig(cfg Config) (*tls.Config, error) {
	if cfg.TLSConfig != nil {
		return cfg.TLSConfig, nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.CABundle != "" {
		pem, err := os.ReadFile(cfg.CABundle)
		if err != nil {
			return nil, fmt.Errorf("read ca bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CABundle)
		}
		tlsCfg.RootCAs = pool
	}
	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

func (c *PahoClient) onTelemetry(_ paho.Client, msg paho.Message) {
	m, err := decodeTelemetry(msg.Payload())
	if err != nil {
		c.log.Errorf("telemetry payload on %s: %v", msg.Topic(), err)
		return
	}
	select {
	case c.messages <- m:
	default:
		c.log.Warnf("telemetry buffer full, dropping message for %s", m.Site)
	}
}

func decodeTelemetry(payload []byte) (telemetry.Message, error) {
	var m telemetry.Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return telemetry.Message{}, fmt.Errorf("decode: %w", err)
	}
	if err := m.Features.Validate(); err != nil {
		return telemetry.Message{}, err
	}
	return m, nil
}

// Messages returns the telemetry channel.
func (c *PahoClient) Messages() <-chan telemetry.Message { return c.messages }

// PublishAction announces an applied mitigation action.
func (c *PahoClient) PublishAction(site string, act model.Action) error {
	payload, err := json.Marshal(map[string]any{
		"site":   site,
		"action": act,
		"ts":     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	token := c.cli.Publish(c.cfg.ActionTopic, c.cfg.QoS, false, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Close disconnects from the broker and closes the telemetry channel.
func (c *PahoClient) Close() error {
	if c.cli != nil && c.cli.IsConnected() {
		c.cli.Disconnect(250)
	}
	close(c.messages)
	return nil
}
