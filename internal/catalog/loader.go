package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk YAML layout:
//
//	models:
//	  WXKG01LM:
//	    name: Aqara Wireless Mini Switch
//	    types: [PushButton]
//	    properties:
//	      battery:
//	        value: 100
//	        metadata: { type: integer, unit: percent, read_only: true }
//	    events:
//	      single: { value_field: click }
type fileFormat struct {
	Models map[string]modelDoc `yaml:"models"`
}

type modelDoc struct {
	Name       string                 `yaml:"name"`
	Types      []string               `yaml:"types"`
	Properties map[string]propertyDoc `yaml:"properties"`
	Events     map[string]EventSpec   `yaml:"events"`
}

type propertyDoc struct {
	Value    any           `yaml:"value"`
	ToBus    TransformSpec `yaml:"to_bus"`
	FromBus  TransformSpec `yaml:"from_bus"`
	Metadata Metadata      `yaml:"metadata"`
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// Load parses a YAML catalog. Transforms are resolved here, once, so an
// unknown transform name fails at load time rather than per message.
func Load(r io.Reader) (*Catalog, error) {
	var doc fileFormat
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	var errs []error
	entries := make(map[string]Entry, len(doc.Models))
	for model, m := range doc.Models {
		entry, err := m.toEntry()
		if err != nil {
			errs = append(errs, fmt.Errorf("model %q: %w", model, err))
			continue
		}
		entries[model] = entry
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}

	return New(entries), nil
}

func (m modelDoc) toEntry() (Entry, error) {
	if m.Name == "" {
		return Entry{}, errors.New("name is required")
	}

	entry := Entry{
		Name:       m.Name,
		Types:      m.Types,
		Properties: make(map[string]PropertySpec, len(m.Properties)),
		Events:     make(map[string]EventSpec, len(m.Events)),
	}

	for name, p := range m.Properties {
		if err := validateMetadata(p.Metadata); err != nil {
			return Entry{}, fmt.Errorf("property %q: %w", name, err)
		}
		toBus, err := p.ToBus.Build()
		if err != nil {
			return Entry{}, fmt.Errorf("property %q to_bus: %w", name, err)
		}
		fromBus, err := p.FromBus.Build()
		if err != nil {
			return Entry{}, fmt.Errorf("property %q from_bus: %w", name, err)
		}
		entry.Properties[name] = PropertySpec{
			Value:    p.Value,
			ToBus:    toBus,
			FromBus:  fromBus,
			Metadata: p.Metadata,
		}
	}

	for name, e := range m.Events {
		if e.ValueField == "" {
			return Entry{}, fmt.Errorf("event %q: value_field is required", name)
		}
		entry.Events[name] = e
	}

	return entry, nil
}

func validateMetadata(md Metadata) error {
	switch md.Type {
	case TypeBoolean, TypeInteger, TypeNumber, TypeString, TypeObject:
	case "":
		return errors.New("metadata.type is required")
	default:
		return fmt.Errorf("metadata.type %q is not supported", md.Type)
	}
	if md.Minimum != nil && md.Maximum != nil && *md.Minimum > *md.Maximum {
		return errors.New("metadata.minimum exceeds metadata.maximum")
	}
	if md.MultipleOf != nil && *md.MultipleOf <= 0 {
		return errors.New("metadata.multiple_of must be positive")
	}
	return nil
}
