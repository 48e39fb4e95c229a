// Package zigbee adapts zigbee2mqtt to Gray Logic's device model.
//
// zigbee2mqtt publishes each paired device's state as a JSON object on
// "<prefix>/<friendly_name>" and the list of paired devices on
// "<prefix>/bridge/config/devices". The Adapter subscribes to both on one
// broker connection per configured prefix, builds a Device for each
// record whose model is in the catalog, and keeps each Property's cached
// value current as state messages arrive.
//
// # Architecture
//
//	┌─────────────────┐          ┌─────────────────┐
//	│   Host sinks    │  Host    │     Adapter     │   MQTT
//	│ (ws, history…)  │◄────────►│   (this pkg)    │◄────────► zigbee2mqtt
//	└─────────────────┘          └─────────────────┘
//
// # Concurrency
//
// Every registry and property mutation runs on a single dispatch loop.
// Broker callbacks enqueue work and return immediately; exported methods
// enqueue work and wait. Host methods are invoked on the loop, in order,
// and must not call back into the Adapter synchronously.
//
// # Writes
//
// Property.SetValue validates the value against the catalog metadata,
// publishes {"<property>": toBus(value)} to "<prefix>/<device>/set" on
// every connection, caches the value and notifies the host with Local set.
//
// # Events
//
// A state message carrying "action": "<name>" raises the device's declared
// event of that name, with the message's value field as event data.
//
// # Thread Safety
//
// Adapter, Device and Property methods are safe for concurrent use.
package zigbee
