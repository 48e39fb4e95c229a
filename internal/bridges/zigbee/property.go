package zigbee

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/catalog"
)

// Property is one typed, cached value of a Device.
//
// The cached value is owned by the adapter's dispatch loop. Local writes go
// through SetValue, which publishes to the bus; inbound bus updates only
// refresh the cache. Last write wins.
type Property struct {
	device    *Device
	name      string
	value     any
	toBus     catalog.Transform
	fromBus   catalog.Transform
	metadata  catalog.Metadata
	updatedAt time.Time
}

// Name returns the property name, which is also its key in bus payloads.
func (p *Property) Name() string { return p.name }

// Device returns the owning device.
func (p *Property) Device() *Device { return p.device }

// Metadata returns the property's catalog metadata.
func (p *Property) Metadata() catalog.Metadata { return p.metadata }

// Value returns the cached value.
func (p *Property) Value(ctx context.Context) (any, error) {
	var v any
	err := p.device.adapter.loop.do(ctx, func() {
		v = p.value
	})
	return v, err
}

// SetValue validates v, publishes toBus(v) to "<prefix>/<device>/set" on
// every connection, caches the validated value and notifies the host.
// It returns the value as cached. Nothing is published when validation
// fails.
func (p *Property) SetValue(ctx context.Context, v any) (any, error) {
	var (
		result any
		err    error
	)
	if loopErr := p.device.adapter.loop.do(ctx, func() {
		result, err = p.setValue(v)
	}); loopErr != nil {
		return nil, loopErr
	}
	return result, err
}

// setValue must run on the dispatch loop.
func (p *Property) setValue(v any) (any, error) {
	a := p.device.adapter
	if !p.device.registered() {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, p.device.id)
	}

	coerced, err := validateValue(p.metadata, v)
	if err != nil {
		return nil, fmt.Errorf("set %s.%s: %w", p.device.id, p.name, err)
	}

	out := p.toBus(coerced)
	if err := a.publishMessage(setTopic(p.device.id), map[string]any{p.name: out}); err != nil {
		a.logWarn("publishing property set failed",
			"device_id", p.device.id,
			"property", p.name,
			"error", err)
	}

	p.store(coerced)
	a.notifyPropertyChanged(p, true)
	return coerced, nil
}

// applyBusValue caches fromBus(raw) without publishing. Runs on the loop.
func (p *Property) applyBusValue(raw any) {
	p.store(p.fromBus(raw))
	p.device.adapter.notifyPropertyChanged(p, false)
}

func (p *Property) store(v any) {
	p.value = v
	p.updatedAt = time.Now().UTC()
}
