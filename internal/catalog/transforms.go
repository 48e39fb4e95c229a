package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// TransformSpec names a transform declaratively, as written in catalog YAML:
//
//	to_bus:   { fn: bool_to_string, true: "ON", false: "OFF" }
//	from_bus: { fn: scale, factor: 0.1 }
type TransformSpec struct {
	Fn     string  `yaml:"fn"`
	Factor float64 `yaml:"factor"`
	Offset float64 `yaml:"offset"`
	True   any     `yaml:"true"`
	False  any     `yaml:"false"`
}

// Build resolves the spec into a Transform. An empty spec is Identity.
func (s TransformSpec) Build() (Transform, error) {
	switch strings.ToLower(s.Fn) {
	case "", "identity":
		return Identity, nil
	case "scale":
		factor := s.Factor
		if factor == 0 {
			factor = 1
		}
		return Scale(factor, s.Offset), nil
	case "round":
		return Round, nil
	case "bool_to_string":
		on, off := s.onOff()
		return BoolToString(on, off), nil
	case "string_to_bool":
		on, _ := s.onOff()
		return StringToBool(on), nil
	case "invert":
		return Invert, nil
	case "percent_to_level":
		return PercentToLevel, nil
	case "level_to_percent":
		return LevelToPercent, nil
	case "kelvin_to_mired":
		return KelvinToMired, nil
	case "mired_to_kelvin":
		return KelvinToMired, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, s.Fn)
	}
}

func (s TransformSpec) onOff() (any, any) {
	on, off := s.True, s.False
	if on == nil {
		on = "ON"
	}
	if off == nil {
		off = "OFF"
	}
	return on, off
}

// Scale returns v*factor+offset for numeric input.
func Scale(factor, offset float64) Transform {
	return func(v any) any {
		f, ok := AsFloat(v)
		if !ok {
			return v
		}
		return f*factor + offset
	}
}

// Round rounds numeric input to the nearest integer.
func Round(v any) any {
	f, ok := AsFloat(v)
	if !ok {
		return v
	}
	return int64(math.Round(f))
}

// BoolToString maps true/false to the given on/off values.
func BoolToString(on, off any) Transform {
	return func(v any) any {
		b, ok := v.(bool)
		if !ok {
			return v
		}
		if b {
			return on
		}
		return off
	}
}

// StringToBool maps the on value to true and anything else to false.
// Strings compare case-insensitively.
func StringToBool(on any) Transform {
	return func(v any) any {
		if s, ok := v.(string); ok {
			if onStr, ok := on.(string); ok {
				return strings.EqualFold(s, onStr)
			}
		}
		return v == on
	}
}

// Invert negates boolean input.
func Invert(v any) any {
	b, ok := v.(bool)
	if !ok {
		return v
	}
	return !b
}

// maxLevel is the zigbee brightness ceiling.
const maxLevel = 254

// PercentToLevel converts 0..100 to the 0..254 zigbee level range.
func PercentToLevel(v any) any {
	f, ok := AsFloat(v)
	if !ok {
		return v
	}
	return int64(math.Round(clamp(f, 0, 100) * maxLevel / 100))
}

// LevelToPercent converts the 0..254 zigbee level range to 0..100.
func LevelToPercent(v any) any {
	f, ok := AsFloat(v)
	if !ok {
		return v
	}
	return int64(math.Round(clamp(f, 0, maxLevel) * 100 / maxLevel))
}

// KelvinToMired converts a colour temperature between kelvin and mired.
// The conversion is its own inverse.
func KelvinToMired(v any) any {
	f, ok := AsFloat(v)
	if !ok || f <= 0 {
		return v
	}
	return int64(math.Round(1e6 / f))
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}

// AsFloat extracts a float64 from any JSON-ish numeric value.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
