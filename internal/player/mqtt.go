package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	logx "adhan/pkg/logx"
)

type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
	Retained bool
	Username string
	Password string
	Timeout  time.Duration
}

const defaultMQTTTimeout = 10 * time.Second

// mqttPayload is published on every signal.
type mqttPayload struct {
	Prayer string    `json:"prayer"`
	At     time.Time `json:"at"`
}

// MQTT publishes a JSON event per signal. The connection is opened lazily and
// kept; paho reconnects on its own afterwards.
type MQTT struct {
	client   mqtt.Client
	topic    string
	qos      byte
	retained bool
	timeout  time.Duration
	log      logx.Logger
}

func NewMQTT(cfg MQTTConfig, log logx.Logger) (*MQTT, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "player.mqtt"))

	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		clientID = "adhan"
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(mqtt.Client) {
		log.Info("connected to mqtt broker", logx.String("broker", cfg.Broker))
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", logx.Err(err))
	}
	return newMQTT(mqtt.NewClient(opts), cfg, log), nil
}

func newMQTT(c mqtt.Client, cfg MQTTConfig, log logx.Logger) *MQTT {
	if log.IsZero() {
		log = logx.Nop()
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		topic = "adhan/prayer"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultMQTTTimeout
	}
	qos := cfg.QoS
	if qos > 2 {
		qos = 1
	}
	return &MQTT{client: c, topic: topic, qos: qos, retained: cfg.Retained, timeout: timeout, log: log}
}

func (m *MQTT) Play(ctx context.Context, sig Signal) error {
	if !m.client.IsConnected() {
		if err := m.wait(ctx, m.client.Connect()); err != nil {
			return fmt.Errorf("%w: mqtt connect: %v", ErrPlayback, err)
		}
	}
	b, err := json.Marshal(mqttPayload{Prayer: sig.Prayer.String(), At: sig.At})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	if err := m.wait(ctx, m.client.Publish(m.topic, m.qos, m.retained, b)); err != nil {
		return fmt.Errorf("%w: mqtt publish %s: %v", ErrPlayback, m.topic, err)
	}
	m.log.Debug("mqtt event published", logx.String("topic", m.topic), logx.Stringer("prayer", sig.Prayer))
	return nil
}

func (m *MQTT) wait(ctx context.Context, tok mqtt.Token) error {
	timer := time.NewTimer(m.timeout)
	defer timer.Stop()
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", m.timeout)
	}
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	if m.client.IsConnected() {
		m.client.Disconnect(250)
	}
}
