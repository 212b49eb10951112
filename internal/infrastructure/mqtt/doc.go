// Package mqtt provides MQTT client connectivity for the mesh gateway.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The gateway uses MQTT as an event bus in both directions: channel and
// message activity plus sampled repeater telemetry are published so
// dashboards and automations can react without polling the HTTP API,
// and inbound commands on meshgate/command/+ drive the gateway the same
// way HTTP callers do.
//
//	mesh gateway ⇄ MQTT Broker ⇄ subscribers (dashboards, automations)
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all gateway events
//	err = client.Subscribe(mqtt.Topics{}.AllEvents(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish telemetry
//	topic := mqtt.Topics{}.TelemetryRepeater("f293ac")
//	client.Publish(topic, []byte(`{"bat":4012}`), 1, false)
package mqtt
