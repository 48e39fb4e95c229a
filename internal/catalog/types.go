package catalog

// Transform converts a property value between host and bus representations.
// Transforms must be pure.
type Transform func(any) any

// Identity returns its argument unchanged.
func Identity(v any) any { return v }

// Value types understood by property validation.
const (
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeString  = "string"
	TypeObject  = "object"
)

// Metadata describes a property to the host. Only the validation fields
// (Type, Minimum, Maximum, MultipleOf, Enum, ReadOnly) affect behaviour.
type Metadata struct {
	Title        string   `yaml:"title" json:"title,omitempty"`
	Type         string   `yaml:"type" json:"type"`
	SemanticType string   `yaml:"semantic_type" json:"@type,omitempty"`
	Unit         string   `yaml:"unit" json:"unit,omitempty"`
	Description  string   `yaml:"description" json:"description,omitempty"`
	Minimum      *float64 `yaml:"minimum" json:"minimum,omitempty"`
	Maximum      *float64 `yaml:"maximum" json:"maximum,omitempty"`
	MultipleOf   *float64 `yaml:"multiple_of" json:"multipleOf,omitempty"`
	Enum         []any    `yaml:"enum" json:"enum,omitempty"`
	ReadOnly     bool     `yaml:"read_only" json:"readOnly,omitempty"`
}

// PropertySpec declares one property of a model.
// Nil transforms mean Identity.
type PropertySpec struct {
	Value    any
	ToBus    Transform
	FromBus  Transform
	Metadata Metadata
}

// EventSpec declares one event of a model. ValueField names the payload
// field whose value becomes the event's data.
type EventSpec struct {
	ValueField  string `yaml:"value_field" json:"valueField,omitempty"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// Entry is the capability description of one device model.
type Entry struct {
	Name       string
	Types      []string
	Properties map[string]PropertySpec
	Events     map[string]EventSpec
}

func floatPtr(f float64) *float64 { return &f }
