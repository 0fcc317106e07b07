// Package telemetry publishes finger positions over MQTT.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gwillem/emgctl/pkg/hand"
)

// Sample is the JSON payload published for every control step.
type Sample struct {
	Timestamp time.Time            `json:"timestamp"`
	Positions hand.Positions       `json:"positions"`
	Raw       [hand.NumFingers]int `json:"raw"`
}

// publisher is the subset of mqtt.Client used for publishing.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher sends samples to one MQTT topic.
type Publisher struct {
	client  publisher
	topic   string
	timeout time.Duration
}

// Connect opens an MQTT connection to broker.
func Connect(broker, clientID, topic string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, token.Error())
	}
	return newPublisher(client, topic), nil
}

func newPublisher(client publisher, topic string) *Publisher {
	return &Publisher{
		client:  client,
		topic:   topic,
		timeout: time.Second,
	}
}

// Topic returns the topic samples are published on.
func (p *Publisher) Topic() string {
	return p.topic
}

// Publish sends one sample with QoS 0, not retained.
func (p *Publisher) Publish(s Sample) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish to %s: timeout", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
