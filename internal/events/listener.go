package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dwhitmore/meshgate-core/internal/infrastructure/logging"
	"github.com/dwhitmore/meshgate-core/internal/infrastructure/mqtt"
	"github.com/dwhitmore/meshgate-core/internal/mesh"
)

// MessageSender dispatches a text message to a named channel.
type MessageSender interface {
	SendMessage(ctx context.Context, channel, text string) (mesh.ChannelRef, error)
}

// commandTimeout bounds one inbound command end to end: session open,
// channel resolution, and the acknowledgement wait.
const commandTimeout = 30 * time.Second

// Listener consumes the gateway's inbound command topics. A message
// published to meshgate/command/message is dispatched to the radio
// exactly as if it had arrived over HTTP, and fans out the same
// dispatched event afterwards.
type Listener struct {
	client *mqtt.Client
	topics mqtt.Topics
	sender MessageSender
	events *Publisher
	logger *logging.Logger
}

// NewListener creates a Listener driving sender from the command topics.
// Returns nil when client is nil.
func NewListener(client *mqtt.Client, sender MessageSender, events *Publisher, logger *logging.Logger) *Listener {
	if client == nil {
		return nil
	}
	return &Listener{
		client: client,
		sender: sender,
		events: events,
		logger: logger,
	}
}

// Start subscribes to the command topics. Subscriptions are restored
// automatically after a broker reconnect.
func (l *Listener) Start(qos byte) error {
	if l == nil {
		return nil
	}
	return l.client.Subscribe(l.topics.CommandMessage(), qos, l.handleMessageCommand)
}

// Close drops the command subscriptions.
func (l *Listener) Close() error {
	if l == nil {
		return nil
	}
	return l.client.Unsubscribe(l.topics.CommandMessage())
}

// messageCommand is the payload accepted on meshgate/command/message.
type messageCommand struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

func (l *Listener) handleMessageCommand(topic string, payload []byte) error {
	var cmd messageCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		// Malformed commands are dropped, not retried.
		l.warn("discarding malformed message command", topic, err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	ref, err := l.sender.SendMessage(ctx, cmd.Channel, cmd.Message)
	if err != nil {
		l.warn("message command failed", topic, err)
		return err
	}

	l.events.MessageDispatched(ref)
	if l.logger != nil {
		l.logger.Info("message command dispatched", "slot", ref.Index, "channel", ref.Name)
	}
	return nil
}

func (l *Listener) warn(msg, topic string, err error) {
	if l.logger != nil {
		l.logger.Warn(msg, "topic", topic, "error", err)
	}
}
