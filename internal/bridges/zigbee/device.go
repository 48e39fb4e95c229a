package zigbee

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/catalog"
)

// Device is one zigbee2mqtt device, identified by its friendly name.
//
// Identity, model and the set of properties are fixed at construction and
// safe to read from any goroutine. Property values live on the adapter's
// dispatch loop; read them through Property.Value or Describe.
type Device struct {
	adapter    *Adapter
	id         string
	modelID    string
	name       string
	types      []string
	properties map[string]*Property
	events     map[string]catalog.EventSpec
	createdAt  time.Time
}

// DeviceDescription is a point-in-time snapshot of a device, safe to hand
// to other goroutines and to encode as JSON.
type DeviceDescription struct {
	ID         string                         `json:"id"`
	Name       string                         `json:"name"`
	ModelID    string                         `json:"model_id"`
	Types      []string                       `json:"@type"`
	Properties map[string]PropertyDescription `json:"properties"`
	Events     map[string]catalog.EventSpec   `json:"events,omitempty"`
	CreatedAt  time.Time                      `json:"created_at"`
}

// PropertyDescription pairs a cached value with the property's metadata.
type PropertyDescription struct {
	Value     any              `json:"value"`
	Metadata  catalog.Metadata `json:"metadata"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// newDevice builds a device and its properties from a catalog entry.
// Missing transforms resolve to catalog.Identity here, once.
func newDevice(a *Adapter, id, modelID string, entry catalog.Entry) *Device {
	now := time.Now().UTC()
	d := &Device{
		adapter:    a,
		id:         id,
		modelID:    modelID,
		name:       entry.Name,
		types:      slices.Clone(entry.Types),
		properties: make(map[string]*Property, len(entry.Properties)),
		events:     make(map[string]catalog.EventSpec, len(entry.Events)),
		createdAt:  now,
	}

	for name, spec := range entry.Properties {
		toBus, fromBus := spec.ToBus, spec.FromBus
		if toBus == nil {
			toBus = catalog.Identity
		}
		if fromBus == nil {
			fromBus = catalog.Identity
		}
		d.properties[name] = &Property{
			device:    d,
			name:      name,
			value:     spec.Value,
			toBus:     toBus,
			fromBus:   fromBus,
			metadata:  spec.Metadata,
			updatedAt: now,
		}
	}
	maps.Copy(d.events, entry.Events)

	return d
}

// ID returns the device's friendly name.
func (d *Device) ID() string { return d.id }

// ModelID returns the catalog model identifier the device was built from.
func (d *Device) ModelID() string { return d.modelID }

// Name returns the model's display name.
func (d *Device) Name() string { return d.name }

// Types returns the semantic type tags.
func (d *Device) Types() []string { return slices.Clone(d.types) }

// Property returns a declared property by name.
func (d *Device) Property(name string) (*Property, bool) {
	p, ok := d.properties[name]
	return p, ok
}

// PropertyNames returns declared property names in sorted order.
func (d *Device) PropertyNames() []string {
	var names []string
	for name := range d.properties {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// EventSpec returns a declared event by name.
func (d *Device) EventSpec(name string) (catalog.EventSpec, bool) {
	spec, ok := d.events[name]
	return spec, ok
}

// Describe snapshots the device on the dispatch loop.
func (d *Device) Describe(ctx context.Context) (DeviceDescription, error) {
	var desc DeviceDescription
	err := d.adapter.loop.do(ctx, func() {
		desc = d.describe()
	})
	return desc, err
}

// describe must run on the dispatch loop.
func (d *Device) describe() DeviceDescription {
	desc := DeviceDescription{
		ID:         d.id,
		Name:       d.name,
		ModelID:    d.modelID,
		Types:      slices.Clone(d.types),
		Properties: make(map[string]PropertyDescription, len(d.properties)),
		Events:     maps.Clone(d.events),
		CreatedAt:  d.createdAt,
	}
	for name, p := range d.properties {
		desc.Properties[name] = PropertyDescription{
			Value:     p.value,
			Metadata:  p.metadata,
			UpdatedAt: p.updatedAt,
		}
	}
	return desc
}

// registered reports whether d is still the device registered under its
// id. A device replaced after a model change is no longer registered.
func (d *Device) registered() bool {
	return d.adapter.devices[d.id] == d
}
