// Package mqtt provides MQTT client connectivity for the Wirebus gateway.
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
// Wirebus speaks the controller's topic-based convention over MQTT: device
// and control facts arrive under /devices/#, and actuation commands are
// published back to per-control command topics. The broker decouples the
// gateway from the controller firmware.
//
//	Controller ↔ MQTT Broker ↔ Wirebus Gateway
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to the whole device tree
//	err = client.Subscribe("/devices/#", 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a relay command
//	client.Publish("/devices/wb-mr6-1/controls/K1/on", []byte("1"), 1, false)
package mqtt
