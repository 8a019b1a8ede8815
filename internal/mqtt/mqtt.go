// Package mqtt publishes booking, resource and sync change notifications so
// that wall calendars and other displays can refresh without polling.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// MQTT connection handler
var connectHandler paho.OnConnectHandler = func(client paho.Client) {
	log.Info().Msg("connected to MQTT broker")
}

// MQTT connection lost handler
var connectLostHandler paho.ConnectionLostHandler = func(client paho.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

type Publisher struct {
	client paho.Client
}

// Connect dials brokerURL (e.g. tcp://localhost:1883).
func Connect(brokerURL, clientID string) (*Publisher, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &Publisher{client: client}, nil
}

// Publish sends payload as JSON at QoS 1. Failures are logged, never returned:
// a missed notification must not fail the write that caused it.
func (p *Publisher) Publish(topic string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to marshal MQTT payload")
		return
	}
	token := p.client.Publish(topic, 1, false, body)
	if !token.WaitTimeout(publishTimeout) {
		log.Warn().Str("topic", topic).Msg("MQTT publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("MQTT publish failed")
	}
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
	log.Info().Msg("MQTT client disconnected")
}

// Nop drops every message. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(string, any) {}
