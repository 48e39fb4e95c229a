package zigbee

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nerrad567/gray-logic-zigbee/internal/catalog"
)

// handleMessage routes one inbound bus message. Runs on the dispatch loop.
//
// Bridge topics other than the device list are ignored without parsing:
// zigbee2mqtt publishes plain strings on some of them.
func (a *Adapter) handleMessage(prefix, topic string, payload []byte) {
	kind, friendlyName := classify(prefix, topic)
	a.metrics.messageReceived(prefix, kind)

	switch kind {
	case routeDeviceList:
		a.handleDeviceList(topic, payload)
	case routeDeviceState:
		a.handleState(topic, friendlyName, payload)
	case routeBridge:
		a.logDebug("ignoring bridge message", "topic", topic)
	default:
		a.metrics.messageDropped(dropForeign)
		a.logDebug("ignoring message outside prefix", "prefix", prefix, "topic", topic)
	}
}

func (a *Adapter) handleDeviceList(topic string, payload []byte) {
	infos, err := parseDeviceList(payload)
	if err != nil {
		a.metrics.messageDropped(dropMalformed)
		a.logWarn("dropping malformed device list", "topic", topic, "error", err)
		return
	}

	for _, info := range infos {
		if _, err := a.upsertDevice(info); err != nil {
			a.logUpsertError(err, info)
		}
	}
}

func (a *Adapter) handleState(topic, friendlyName string, payload []byte) {
	msg, err := parseState(payload)
	if err != nil {
		a.metrics.messageDropped(dropMalformed)
		a.logWarn("dropping malformed state message", "topic", topic, "error", err)
		return
	}

	device, ok := a.devices[friendlyName]
	if !ok {
		info, hasDescriptor := descriptorFrom(msg)
		if !hasDescriptor {
			a.metrics.messageDropped(dropUnknownDevice)
			a.logDebug("dropping state for unknown device", "device_id", friendlyName)
			return
		}
		a.logInfo("creating device from state descriptor",
			"device_id", info.FriendlyName,
			"model", info.ModelID())
		created, err := a.upsertDevice(info)
		if err != nil {
			a.logUpsertError(err, info)
			return
		}
		// The state belongs to the topic's device, not the one described.
		if info.FriendlyName != friendlyName {
			a.logWarn("state descriptor names a different device, state not applied",
				"topic", topic,
				"descriptor", info.FriendlyName)
			return
		}
		device = created
	}

	a.applyState(device, msg)
}

// applyState raises the declared event named by "action", if any, then
// refreshes every declared property present in msg. Keys are visited in
// sorted order so notifications are deterministic.
func (a *Adapter) applyState(device *Device, msg map[string]any) {
	if action, ok := msg["action"].(string); ok && action != "" {
		if spec, ok := device.events[action]; ok {
			a.emitEvent(newEvent(device.id, action, msg[spec.ValueField]))
		}
	}

	keys := make([]string, 0, len(msg))
	for key := range msg {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if p, ok := device.properties[key]; ok {
			p.applyBusValue(msg[key])
		}
	}
}

// upsertDevice creates and registers a device unless one with the same
// friendly name and model already exists. A device re-announced with a
// different model is replaced. Runs on the dispatch loop.
func (a *Adapter) upsertDevice(info DeviceInfo) (*Device, error) {
	if !info.valid() {
		return nil, ErrInvalidDeviceInfo
	}

	modelID, entry, ok := a.resolveModel(info)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, info.ModelID())
	}

	if existing, ok := a.devices[info.FriendlyName]; ok {
		if existing.modelID == modelID {
			return existing, ErrDeviceExists
		}
		a.logWarn("device model changed, replacing device",
			"device_id", info.FriendlyName,
			"old_model", existing.modelID,
			"new_model", modelID)
		a.removeDevice(existing)
	}

	device := newDevice(a, info.FriendlyName, modelID, entry)
	a.devices[device.id] = device
	a.deviceCount.Store(int64(len(a.devices)))
	a.metrics.setDevices(len(a.devices))

	a.subscribeDevice(device.id)
	a.host.DeviceAdded(device.describe())

	a.logInfo("device added",
		"device_id", device.id,
		"model", modelID,
		"ieee_address", info.IEEEAddress)
	return device, nil
}

func (a *Adapter) resolveModel(info DeviceInfo) (string, catalog.Entry, bool) {
	for _, model := range info.Models {
		if entry, ok := a.catalog.Lookup(model); ok {
			return model, entry, true
		}
	}
	return "", catalog.Entry{}, false
}

func (a *Adapter) removeDevice(device *Device) {
	delete(a.devices, device.id)
	a.deviceCount.Store(int64(len(a.devices)))
	a.metrics.setDevices(len(a.devices))
	a.host.DeviceRemoved(device.id)
}

// subscribeDevice subscribes the device's state topic on every connection
// when the name spans several levels. Single-level names are already covered
// by the prefix wildcard, and a second matching subscription would make the
// broker client deliver each message twice.
func (a *Adapter) subscribeDevice(friendlyName string) {
	if !strings.Contains(friendlyName, "/") {
		return
	}
	for _, c := range a.conns {
		topic := deviceTopic(c.prefix, friendlyName)
		if err := c.client.Subscribe(topic, a.qos, a.messageHandler(c.prefix)); err != nil {
			a.logWarn("subscribing device topic failed", "topic", topic, "error", err)
		}
	}
}

func (a *Adapter) logUpsertError(err error, info DeviceInfo) {
	switch {
	case errors.Is(err, ErrDeviceExists):
		a.logDebug("device already exists", "device_id", info.FriendlyName, "model", info.ModelID())
	case errors.Is(err, ErrUnknownModel):
		a.metrics.messageDropped(dropUnknownModel)
		a.logWarn("device model not in catalog",
			"device_id", info.FriendlyName,
			"models", info.Models)
	default:
		a.logWarn("ignoring device record", "device_id", info.FriendlyName, "error", err)
	}
}

func (a *Adapter) notifyPropertyChanged(p *Property, local bool) {
	a.host.PropertyChanged(PropertyChange{
		DeviceID: p.device.id,
		Property: p.name,
		Value:    p.value,
		Local:    local,
		Time:     p.updatedAt,
	})
}

func (a *Adapter) emitEvent(event Event) {
	a.metrics.eventEmitted()
	a.host.EventEmitted(event)
}
