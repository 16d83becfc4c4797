package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/iwvelando/energy-optimizer/internal/form"
	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"go.uber.org/zap"
)

// publishTimeout bounds how long Render waits for the broker to acknowledge.
const publishTimeout = 5 * time.Second

// MQTTConfig describes the broker connection and topic layout.
type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"clientId"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topicPrefix"`
	QoS         byte   `mapstructure:"qos"`
}

// Enabled reports whether a broker is configured.
func (c MQTTConfig) Enabled() bool {
	return strings.TrimSpace(c.Broker) != ""
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes form states to a broker:
//
//	<prefix>/status  status name, every transition
//	<prefix>/result  result JSON, retained, on success
//	<prefix>/error   error text, on failure
type MQTT struct {
	client publisher
	prefix string
	qos    byte
	logger *zap.Logger
	close  func()
}

// NewMQTT connects to the broker described by cfg.
func NewMQTT(cfg MQTTConfig, logger *zap.Logger) (*MQTT, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = constants.DefaultMQTTClientID
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost",
			zap.String("op", "render.MQTT"),
			zap.Error(err),
		)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, token.Error())
	}
	logger.Info("connected to MQTT broker",
		zap.String("op", "render.MQTT"),
		zap.String("broker", cfg.Broker),
	)

	m := newMQTT(client, cfg, logger)
	m.close = func() { client.Disconnect(250) }
	return m, nil
}

func newMQTT(client publisher, cfg MQTTConfig, logger *zap.Logger) *MQTT {
	prefix := strings.TrimSuffix(cfg.TopicPrefix, "/")
	if prefix == "" {
		prefix = constants.DefaultMQTTTopicPrefix
	}
	return &MQTT{
		client: client,
		prefix: prefix,
		qos:    cfg.QoS,
		logger: logger,
		close:  func() {},
	}
}

// Render publishes s. Broker failures are logged and never block the form
// for longer than the publish timeout.
func (m *MQTT) Render(s form.State) {
	m.publish("status", false, s.Status.String())

	switch s.Status {
	case form.StatusSucceeded:
		if s.Result == nil {
			return
		}
		payload, err := json.Marshal(s.Result)
		if err != nil {
			m.logger.Error("failed to encode result",
				zap.String("op", "render.MQTT"),
				zap.Error(err),
			)
			return
		}
		m.publish("result", true, payload)
	case form.StatusFailed, form.StatusInvalid:
		m.publish("error", false, s.Message)
	}
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.close()
}

func (m *MQTT) publish(suffix string, retained bool, payload interface{}) {
	topic := m.prefix + "/" + suffix
	token := m.client.Publish(topic, m.qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		m.logger.Warn("timed out publishing to MQTT",
			zap.String("op", "render.MQTT"),
			zap.String("topic", topic),
		)
		return
	}
	if err := token.Error(); err != nil {
		m.logger.Warn("failed to publish to MQTT",
			zap.String("op", "render.MQTT"),
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}
