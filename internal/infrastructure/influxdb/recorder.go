package influxdb

import (
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-zigbee/internal/bridges/zigbee"
)

// pointWriter is satisfied by *Client.
type pointWriter interface {
	WritePoint(point *write.Point)
}

// Recorder is a zigbee.Host that writes property changes and events as
// InfluxDB points. Writes are batched by the client and never block.
type Recorder struct {
	writer pointWriter
}

var _ zigbee.Host = (*Recorder)(nil)

// NewRecorder creates a recorder that writes through client.
func NewRecorder(client *Client) *Recorder {
	return &Recorder{writer: client}
}

func (r *Recorder) DeviceAdded(zigbee.DeviceDescription) {}

func (r *Recorder) DeviceRemoved(string) {}

func (r *Recorder) PropertyChanged(change zigbee.PropertyChange) {
	if point, ok := PropertyPoint(change); ok {
		r.writer.WritePoint(point)
	}
}

func (r *Recorder) EventEmitted(event zigbee.Event) {
	r.writer.WritePoint(EventPoint(event))
}
