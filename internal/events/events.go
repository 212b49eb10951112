// Package events publishes gateway activity to the MQTT event bus.
//
// Publishing is best-effort: a disabled or disconnected broker never fails
// the HTTP request that triggered the event. All methods are safe to call
// on a nil Publisher, which is how the gateway runs with MQTT disabled.
package events

import (
	"encoding/json"
	"time"

	"github.com/dwhitmore/meshgate-core/internal/infrastructure/logging"
	"github.com/dwhitmore/meshgate-core/internal/infrastructure/mqtt"
	"github.com/dwhitmore/meshgate-core/internal/mesh"
)

// Publisher fans out gateway events over MQTT.
type Publisher struct {
	client *mqtt.Client
	topics mqtt.Topics
	qos    byte
	logger *logging.Logger
}

// NewPublisher creates a Publisher backed by the given MQTT client.
// Returns nil when client is nil; a nil Publisher silently drops events.
func NewPublisher(client *mqtt.Client, qos byte, logger *logging.Logger) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{
		client: client,
		qos:    qos,
		logger: logger,
	}
}

// messageEvent is the payload published when a channel message is dispatched.
type messageEvent struct {
	ChannelIndex int       `json:"channel_index"`
	ChannelName  string    `json:"channel_name"`
	SentAt       time.Time `json:"sent_at"`
}

// channelEvent is the payload published when a channel is created.
type channelEvent struct {
	Index     int       `json:"index"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageDispatched publishes a message-sent event.
func (p *Publisher) MessageDispatched(ref mesh.ChannelRef) {
	if p == nil {
		return
	}
	p.publish(p.topics.EventMessage(), messageEvent{
		ChannelIndex: ref.Index,
		ChannelName:  ref.Name,
		SentAt:       time.Now().UTC(),
	})
}

// ChannelCreated publishes a channel-created event.
func (p *Publisher) ChannelCreated(ch mesh.ChannelInfo) {
	if p == nil {
		return
	}
	p.publish(p.topics.EventChannel(), channelEvent{
		Index:     ch.Index,
		Name:      ch.Name,
		CreatedAt: time.Now().UTC(),
	})
}

// RepeaterTelemetry publishes a sampled telemetry report for one repeater.
// The payload is the report's JSON encoding.
func (p *Publisher) RepeaterTelemetry(repeaterID string, report any) {
	if p == nil || repeaterID == "" {
		return
	}
	p.publish(p.topics.TelemetryRepeater(repeaterID), report)
}

func (p *Publisher) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		p.warn("encoding event payload", topic, err)
		return
	}
	if err := p.client.Publish(topic, payload, p.qos, false); err != nil {
		p.warn("publishing event", topic, err)
	}
}

func (p *Publisher) warn(msg, topic string, err error) {
	if p.logger != nil {
		p.logger.Warn(msg, "topic", topic, "error", err)
	}
}
