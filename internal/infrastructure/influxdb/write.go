package influxdb

import (
	"encoding/json"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-zigbee/internal/bridges/zigbee"
)

// Measurement names.
const (
	MeasurementProperty = "zigbee_property"
	MeasurementEvent    = "zigbee_event"
)

// PropertyPoint converts a property change into a point. Only numeric and
// boolean values are stored; other values return ok == false.
//
// Tags: device_id, property, source (bus|local). Field: value.
func PropertyPoint(change zigbee.PropertyChange) (*write.Point, bool) {
	var value any
	switch v := change.Value.(type) {
	case bool:
		value = v
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, false
		}
		value = f
	default:
		return nil, false
	}

	source := "bus"
	if change.Local {
		source = "local"
	}

	return write.NewPoint(
		MeasurementProperty,
		map[string]string{
			"device_id": change.DeviceID,
			"property":  change.Property,
			"source":    source,
		},
		map[string]any{"value": value},
		timestampOrNow(change.Time),
	), true
}

// EventPoint converts an event into a point.
//
// Tags: device_id, event. Fields: count (always 1) and data when the event
// carries a scalar value.
func EventPoint(event zigbee.Event) *write.Point {
	fields := map[string]any{"count": int64(1)}
	switch v := event.Data.(type) {
	case string, bool, float64, int64:
		fields["data"] = v
	case int:
		fields["data"] = int64(v)
	}

	return write.NewPoint(
		MeasurementEvent,
		map[string]string{
			"device_id": event.DeviceID,
			"event":     event.Name,
		},
		fields,
		timestampOrNow(event.Timestamp),
	)
}

func timestampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
