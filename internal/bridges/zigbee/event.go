package zigbee

import (
	"time"

	"github.com/google/uuid"
)

// Event is a transient occurrence reported by a device, such as a button
// press. Events are built, handed to the host once, and discarded.
type Event struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Name      string    `json:"name"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func newEvent(deviceID, name string, data any) Event {
	return Event{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		Name:      name,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
