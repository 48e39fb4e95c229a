package history

import (
	"encoding/json"
	"time"
)

// Entry kinds.
const (
	KindProperty = "property"
	KindEvent    = "event"
)

// Entry is one row of a device's audit log: a property change or an event.
type Entry struct {
	ID        int64           `json:"id"`
	Kind      string          `json:"kind"`
	DeviceID  string          `json:"device_id"`
	Name      string          `json:"name"`
	Value     json.RawMessage `json:"value,omitempty"`
	Local     bool            `json:"local,omitempty"`
	EventID   string          `json:"event_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
