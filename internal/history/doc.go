// Package history keeps a SQLite audit log of property changes and device
// events.
//
// The log is write-only from the adapter's point of view: it is never read
// back into the property cache. The HTTP API serves it per device.
package history
