package mqtt

import "fmt"

// Gray Logic topic roots. Zigbee2mqtt topics are owned by the zigbee
// bridge package; these cover only what the bridge publishes about itself.
const (
	TopicPrefixBridge = "graylogic"

	TopicPrefixSystem = "graylogic/system"
)

// Topics provides builders for Gray Logic MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.BridgeHealth("zigbee", "zigbee-bridge-01")
//	// Returns: "graylogic/health/zigbee/zigbee-bridge-01"
type Topics struct{}

// BridgeHealth returns the retained health topic for one bridge instance.
//
// Example: graylogic/health/zigbee/zigbee-bridge-01
func (Topics) BridgeHealth(protocol, bridgeID string) string {
	return fmt.Sprintf("%s/health/%s/%s", TopicPrefixBridge, protocol, bridgeID)
}

// AllBridgeHealth matches every bridge health topic.
//
// Pattern: graylogic/health/#
func (Topics) AllBridgeHealth() string {
	return fmt.Sprintf("%s/health/#", TopicPrefixBridge)
}

// ClientStatus returns the retained online/offline topic for one connection.
//
// Example: graylogic/system/status/graylogic-zigbee-zigbee2mqtt
func (Topics) ClientStatus(clientID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefixSystem, clientID)
}
