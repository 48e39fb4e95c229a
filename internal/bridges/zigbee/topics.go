package zigbee

import "strings"

// zigbee2mqtt topic paths, relative to a prefix.
const (
	deviceListPath        = "bridge/config/devices"
	deviceListRequestPath = "bridge/config/devices/get"
	bridgePath            = "bridge"
	setSuffix             = "/set"
)

// routeKind classifies an inbound topic.
type routeKind int

const (
	routeForeign routeKind = iota
	routeDeviceList
	routeBridge
	routeDeviceState
)

func (k routeKind) String() string {
	switch k {
	case routeDeviceList:
		return "device_list"
	case routeBridge:
		return "bridge"
	case routeDeviceState:
		return "state"
	default:
		return "foreign"
	}
}

// deviceListTopic is where zigbee2mqtt publishes the paired-device list.
//
// Example: zigbee2mqtt/bridge/config/devices
func deviceListTopic(prefix string) string {
	return prefix + "/" + deviceListPath
}

// deviceListRequestTopic asks zigbee2mqtt to re-publish the device list.
//
// Example: zigbee2mqtt/bridge/config/devices/get
func deviceListRequestTopic(prefix string) string {
	return prefix + "/" + deviceListRequestPath
}

// deviceWildcardTopic matches every single-level device state topic.
//
// Pattern: zigbee2mqtt/+
func deviceWildcardTopic(prefix string) string {
	return prefix + "/+"
}

// deviceTopic is the state topic for one device.
//
// Example: zigbee2mqtt/kitchen_lamp
func deviceTopic(prefix, friendlyName string) string {
	return prefix + "/" + friendlyName
}

// setTopic is the prefix-relative command topic for one device.
//
// Example: kitchen_lamp/set
func setTopic(deviceID string) string {
	return deviceID + setSuffix
}

// classify decides how a topic received on prefix is routed. For state
// topics it also returns the friendly name, which is the final path segment.
func classify(prefix, topic string) (routeKind, string) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok || rest == "" {
		return routeForeign, ""
	}

	if rest == deviceListPath {
		return routeDeviceList, ""
	}
	if rest == bridgePath || strings.HasPrefix(rest, bridgePath+"/") {
		return routeBridge, ""
	}

	name := rest[strings.LastIndex(rest, "/")+1:]
	if name == "" {
		return routeForeign, ""
	}
	return routeDeviceState, name
}
