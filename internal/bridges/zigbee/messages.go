package zigbee

import (
	"encoding/json"
	"fmt"
)

// DeviceInfo identifies a device and its model, either from a bridge
// device-list record or from a descriptor embedded in a state message.
type DeviceInfo struct {
	FriendlyName string
	IEEEAddress  string

	// Models holds candidate model identifiers, most specific first.
	// The first one present in the catalog is used.
	Models []string
}

// ModelID returns the primary model identifier, or "" if none was given.
func (i DeviceInfo) ModelID() string {
	if len(i.Models) == 0 {
		return ""
	}
	return i.Models[0]
}

func (i DeviceInfo) valid() bool {
	return i.FriendlyName != "" && len(i.Models) > 0
}

// deviceInfoWire accepts the field spellings zigbee2mqtt has used across
// releases: friendly_name/modelID in bridge/config/devices,
// friendlyName/model in embedded state descriptors, and
// ieee_address/definition.model in bridge/devices.
type deviceInfoWire struct {
	FriendlyName      string `json:"friendly_name"`
	FriendlyNameCamel string `json:"friendlyName"`

	ModelIDLegacy string `json:"modelID"`
	Model         string `json:"model"`
	ModelID       string `json:"model_id"`
	Definition    *struct {
		Model string `json:"model"`
	} `json:"definition"`

	IEEEAddress string `json:"ieee_address"`
	IEEEAddr    string `json:"ieeeAddr"`
}

func (w deviceInfoWire) toInfo() DeviceInfo {
	info := DeviceInfo{
		FriendlyName: firstNonEmpty(w.FriendlyName, w.FriendlyNameCamel),
		IEEEAddress:  firstNonEmpty(w.IEEEAddress, w.IEEEAddr),
	}

	candidates := []string{w.ModelIDLegacy, w.Model, w.ModelID}
	if w.Definition != nil {
		candidates = append(candidates, w.Definition.Model)
	}
	seen := make(map[string]bool, len(candidates))
	for _, m := range candidates {
		if m != "" && !seen[m] {
			seen[m] = true
			info.Models = append(info.Models, m)
		}
	}
	return info
}

// parseDeviceList decodes a bridge device-list payload: a JSON array of
// device records. Records that are not objects are skipped.
func parseDeviceList(payload []byte) ([]DeviceInfo, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("%w: device list: %w", ErrMalformedMessage, err)
	}

	infos := make([]DeviceInfo, 0, len(records))
	for _, raw := range records {
		var w deviceInfoWire
		if err := json.Unmarshal(raw, &w); err != nil {
			continue
		}
		infos = append(infos, w.toInfo())
	}
	return infos, nil
}

// parseState decodes a device state payload, which must be a JSON object.
func parseState(payload []byte) (map[string]any, error) {
	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("%w: state: %w", ErrMalformedMessage, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: state payload is null", ErrMalformedMessage)
	}
	return msg, nil
}

// descriptorFrom extracts the "device" descriptor embedded in a state
// message, if there is a usable one.
func descriptorFrom(msg map[string]any) (DeviceInfo, bool) {
	raw, ok := msg["device"].(map[string]any)
	if !ok {
		return DeviceInfo{}, false
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return DeviceInfo{}, false
	}
	var w deviceInfoWire
	if err := json.Unmarshal(data, &w); err != nil {
		return DeviceInfo{}, false
	}

	info := w.toInfo()
	return info, info.valid()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
