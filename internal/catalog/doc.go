// Package catalog holds the static per-model capability catalog for
// zigbee2mqtt devices.
//
// A Catalog maps a model identifier (as reported by zigbee2mqtt, e.g.
// "WXKG01LM") to an Entry: the display name, semantic type tags, the
// properties the model exposes, and the events it can emit. Each property
// carries its initial value, JSON-schema-like metadata, and a pair of pure
// transforms converting between the host representation and the bus
// representation.
//
// Catalogs are immutable once built. The bridge starts from Builtin() and
// optionally merges a YAML file over it:
//
//	cat := catalog.Builtin()
//	if cfg.Catalog.File != "" {
//	    extra, err := catalog.LoadFile(cfg.Catalog.File)
//	    if err != nil {
//	        return err
//	    }
//	    cat = cat.Merge(extra)
//	}
package catalog
