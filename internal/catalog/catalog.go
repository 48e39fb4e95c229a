package catalog

import (
	"maps"
	"slices"
)

// Catalog is an immutable set of model entries keyed by model identifier.
// A nil *Catalog behaves as an empty catalog.
type Catalog struct {
	entries map[string]Entry
}

// New builds a catalog from the given entries. The map is copied.
func New(entries map[string]Entry) *Catalog {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for model, entry := range entries {
		c.entries[model] = cloneEntry(entry)
	}
	return c
}

// Lookup returns the entry for a model identifier.
func (c *Catalog) Lookup(modelID string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	entry, ok := c.entries[modelID]
	return entry, ok
}

// Models returns all model identifiers in sorted order.
func (c *Catalog) Models() []string {
	if c == nil {
		return nil
	}
	var models []string
	for model := range c.entries {
		models = append(models, model)
	}
	slices.Sort(models)
	return models
}

// Len returns the number of models.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Merge returns a new catalog containing c's entries overlaid by other's.
// Entries in other replace same-named entries in c wholesale.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := make(map[string]Entry, c.Len()+other.Len())
	if c != nil {
		maps.Copy(merged, c.entries)
	}
	if other != nil {
		maps.Copy(merged, other.entries)
	}
	return New(merged)
}

func cloneEntry(e Entry) Entry {
	out := Entry{
		Name:       e.Name,
		Types:      slices.Clone(e.Types),
		Properties: make(map[string]PropertySpec, len(e.Properties)),
		Events:     make(map[string]EventSpec, len(e.Events)),
	}
	maps.Copy(out.Properties, e.Properties)
	maps.Copy(out.Events, e.Events)
	return out
}
