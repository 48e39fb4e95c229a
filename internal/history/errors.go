package history

import "errors"

var (
	// ErrDeviceIDRequired is returned when a write or query has no device id.
	ErrDeviceIDRequired = errors.New("history: device id is required")

	// ErrInvalidRetention is returned by Prune for a non-positive duration.
	ErrInvalidRetention = errors.New("history: retention must be positive")
)
