package zigbee

import "time"

// Host receives device lifecycle and state notifications from the Adapter.
//
// Methods are called on the adapter's dispatch loop, one at a time, in the
// order the underlying changes happened. Implementations must return
// promptly and must not call back into the Adapter synchronously (that
// would wait on the loop that is running the notification).
type Host interface {
	DeviceAdded(device DeviceDescription)
	DeviceRemoved(deviceID string)
	PropertyChanged(change PropertyChange)
	EventEmitted(event Event)
}

// PropertyChange is a snapshot of a property value after it changed.
type PropertyChange struct {
	DeviceID string    `json:"device_id"`
	Property string    `json:"property"`
	Value    any       `json:"value"`
	Local    bool      `json:"local"` // true when set through SetValue, false when reported by the bus
	Time     time.Time `json:"timestamp"`
}

// Hosts fans every notification out to each member in order.
type Hosts []Host

func (hs Hosts) DeviceAdded(device DeviceDescription) {
	for _, h := range hs {
		h.DeviceAdded(device)
	}
}

func (hs Hosts) DeviceRemoved(deviceID string) {
	for _, h := range hs {
		h.DeviceRemoved(deviceID)
	}
}

func (hs Hosts) PropertyChanged(change PropertyChange) {
	for _, h := range hs {
		h.PropertyChanged(change)
	}
}

func (hs Hosts) EventEmitted(event Event) {
	for _, h := range hs {
		h.EventEmitted(event)
	}
}

type noopHost struct{}

func (noopHost) DeviceAdded(DeviceDescription) {}
func (noopHost) DeviceRemoved(string)          {}
func (noopHost) PropertyChanged(PropertyChange) {}
func (noopHost) EventEmitted(Event)             {}
