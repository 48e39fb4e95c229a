package zigbee

import "errors"

// Domain errors for the Zigbee bridge package.
var (
	// ErrMalformedMessage is returned when a bus payload is not the JSON
	// shape its topic requires.
	ErrMalformedMessage = errors.New("zigbee: malformed message")

	// ErrInvalidDeviceInfo is returned when a device record lacks a
	// friendly name or model identifier.
	ErrInvalidDeviceInfo = errors.New("zigbee: invalid device info")

	// ErrUnknownModel is returned when a model identifier has no catalog entry.
	ErrUnknownModel = errors.New("zigbee: unknown model")

	// ErrDeviceExists is returned when a device is re-announced with the
	// model it already has.
	ErrDeviceExists = errors.New("zigbee: device already exists")

	ErrDeviceNotFound = errors.New("zigbee: device not found")

	ErrPropertyNotFound = errors.New("zigbee: property not found")

	// ErrInvalidValue is returned when a value fails property validation.
	ErrInvalidValue = errors.New("zigbee: invalid property value")

	ErrReadOnly = errors.New("zigbee: property is read-only")

	// ErrNotRunning is returned when the adapter's dispatch loop is not running.
	ErrNotRunning = errors.New("zigbee: adapter not running")

	ErrNotConnected = errors.New("zigbee: no connected prefix")

	ErrNoPrefixes = errors.New("zigbee: at least one topic prefix is required")
)
