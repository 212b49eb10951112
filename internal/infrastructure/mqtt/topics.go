package mqtt

import "fmt"

// Topic prefixes for the gateway's MQTT surface.
//
// Everything lives under the flat scheme: meshgate/{category}/{subject}.
const (
	// TopicPrefix is the base for all gateway topics.
	TopicPrefix = "meshgate"

	// TopicPrefixEvent is the base for domain event topics.
	TopicPrefixEvent = "meshgate/event"

	// TopicPrefixTelemetry is the base for telemetry topics.
	TopicPrefixTelemetry = "meshgate/telemetry"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "meshgate/system"

	// TopicPrefixCommand is the base for inbound command topics.
	TopicPrefixCommand = "meshgate/command"
)

// Topics provides builders for gateway MQTT topics. Using these helpers
// keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.EventMessage()
//	// Returns: "meshgate/event/message"
type Topics struct{}

// EventMessage returns the topic for dispatched channel messages.
//
// Example: meshgate/event/message
func (Topics) EventMessage() string {
	return fmt.Sprintf("%s/message", TopicPrefixEvent)
}

// EventChannel returns the topic for channel lifecycle events.
//
// Example: meshgate/event/channel
func (Topics) EventChannel() string {
	return fmt.Sprintf("%s/channel", TopicPrefixEvent)
}

// TelemetryRepeater returns the topic for one repeater's telemetry.
//
// Example: meshgate/telemetry/aabbcc001122
func (Topics) TelemetryRepeater(repeaterID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixTelemetry, repeaterID)
}

// SystemStatus returns the gateway status topic.
//
// Example: meshgate/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// CommandMessage returns the topic the gateway listens on for inbound
// message-send commands.
//
// Example: meshgate/command/message
func (Topics) CommandMessage() string {
	return fmt.Sprintf("%s/message", TopicPrefixCommand)
}

// AllCommands returns a pattern matching every inbound command topic.
//
// Pattern: meshgate/command/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/+", TopicPrefixCommand)
}

// AllEvents returns a pattern matching every domain event.
//
// Pattern: meshgate/event/+
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/+", TopicPrefixEvent)
}

// AllTelemetry returns a pattern matching every repeater's telemetry.
//
// Pattern: meshgate/telemetry/+
func (Topics) AllTelemetry() string {
	return fmt.Sprintf("%s/+", TopicPrefixTelemetry)
}

// AllTopics returns a pattern matching all gateway topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: meshgate/#
func (Topics) AllTopics() string {
	return "meshgate/#"
}
