package zigbee

import (
	"fmt"
	"math"

	"github.com/nerrad567/gray-logic-zigbee/internal/catalog"
)

// multipleOfTolerance absorbs float error when checking multipleOf.
const multipleOfTolerance = 1e-9

// validateValue checks v against a property's metadata and returns the
// value coerced to the declared type: bool, int64, float64 or string.
// Objects and untyped properties pass through unchanged.
func validateValue(md catalog.Metadata, v any) (any, error) {
	if md.ReadOnly {
		return nil, ErrReadOnly
	}
	if v == nil {
		return nil, fmt.Errorf("%w: value is required", ErrInvalidValue)
	}

	var coerced any
	switch md.Type {
	case catalog.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected boolean, got %T", ErrInvalidValue, v)
		}
		coerced = b

	case catalog.TypeInteger:
		f, ok := catalog.AsFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: expected integer, got %T", ErrInvalidValue, v)
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("%w: %v is not an integer", ErrInvalidValue, v)
		}
		if err := checkRange(md, f); err != nil {
			return nil, err
		}
		coerced = int64(f)

	case catalog.TypeNumber:
		f, ok := catalog.AsFloat(v)
		if !ok || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("%w: expected number, got %T", ErrInvalidValue, v)
		}
		if err := checkRange(md, f); err != nil {
			return nil, err
		}
		coerced = f

	case catalog.TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, v)
		}
		coerced = s

	default:
		coerced = v
	}

	if len(md.Enum) > 0 && !inEnum(md.Enum, coerced) {
		return nil, fmt.Errorf("%w: %v is not one of %v", ErrInvalidValue, coerced, md.Enum)
	}

	return coerced, nil
}

func checkRange(md catalog.Metadata, f float64) error {
	if md.Minimum != nil && f < *md.Minimum {
		return fmt.Errorf("%w: %v is below minimum %v", ErrInvalidValue, f, *md.Minimum)
	}
	if md.Maximum != nil && f > *md.Maximum {
		return fmt.Errorf("%w: %v is above maximum %v", ErrInvalidValue, f, *md.Maximum)
	}
	if md.MultipleOf != nil && *md.MultipleOf > 0 {
		if math.Abs(math.Remainder(f, *md.MultipleOf)) > multipleOfTolerance {
			return fmt.Errorf("%w: %v is not a multiple of %v", ErrInvalidValue, f, *md.MultipleOf)
		}
	}
	return nil
}

// inEnum compares numerically when both sides are numbers, so an enum
// declared as YAML ints accepts the coerced int64/float64 forms.
func inEnum(enum []any, v any) bool {
	vf, vNumeric := catalog.AsFloat(v)
	for _, allowed := range enum {
		if af, ok := catalog.AsFloat(allowed); ok && vNumeric {
			if af == vf {
				return true
			}
			continue
		}
		if s, ok := allowed.(string); ok {
			if vs, ok := v.(string); ok && vs == s {
				return true
			}
			continue
		}
		if b, ok := allowed.(bool); ok {
			if vb, ok := v.(bool); ok && vb == b {
				return true
			}
		}
	}
	return false
}
