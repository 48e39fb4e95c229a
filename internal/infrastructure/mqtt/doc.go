// Package mqtt provides MQTT broker connectivity for the Zigbee bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions that survive reconnects
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// The bridge opens one Client per zigbee2mqtt topic prefix. Each client has
// its own client ID (see ClientIDForPrefix) and its own retained status
// topic, so a lost connection is visible per prefix.
//
//	zigbee2mqtt ↔ MQTT Broker ↔ Client (per prefix) ↔ zigbee.Adapter
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) for anything but a local broker
//   - Credentials are passed to the broker only, never logged
//
// # Usage
//
//	cfg.Broker.ClientID = mqtt.ClientIDForPrefix(cfg.Broker.ClientID, "zigbee2mqtt")
//	client, err := mqtt.Connect(cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("zigbee2mqtt/+", 1,
//	    func(topic string, payload []byte) error {
//	        return nil
//	    })
package mqtt
