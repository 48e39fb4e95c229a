package zigbee

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		topic    string
		wantKind routeKind
		wantName string
	}{
		{"zigbee2mqtt/bridge/config/devices", routeDeviceList, ""},
		{"zigbee2mqtt/bridge/state", routeBridge, ""},
		{"zigbee2mqtt/bridge/config/devices/get", routeBridge, ""},
		{"zigbee2mqtt/bridge", routeBridge, ""},
		{"zigbee2mqtt/kitchen_lamp", routeDeviceState, "kitchen_lamp"},
		{"zigbee2mqtt/ground/hall/lamp", routeDeviceState, "lamp"},
		{"zigbee2mqtt/", routeForeign, ""},
		{"zigbee2mqtt/lamp/", routeForeign, ""},
		{"zigbee2mqttx/lamp", routeForeign, ""},
		{"other/lamp", routeForeign, ""},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			kind, name := classify("zigbee2mqtt", tt.topic)
			if kind != tt.wantKind || name != tt.wantName {
				t.Errorf("classify(%q) = (%v, %q), want (%v, %q)", tt.topic, kind, name, tt.wantKind, tt.wantName)
			}
		})
	}
}

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{deviceListTopic("z2m"), "z2m/bridge/config/devices"},
		{deviceListRequestTopic("z2m"), "z2m/bridge/config/devices/get"},
		{deviceWildcardTopic("z2m"), "z2m/+"},
		{deviceTopic("z2m", "lamp"), "z2m/lamp"},
		{setTopic("lamp"), "lamp/set"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
