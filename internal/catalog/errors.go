package catalog

import "errors"

var (
	// ErrInvalidCatalog is returned when a catalog file fails validation.
	ErrInvalidCatalog = errors.New("catalog: invalid catalog")

	// ErrUnknownTransform is returned for a transform name with no implementation.
	ErrUnknownTransform = errors.New("catalog: unknown transform")
)
