// Package statecache mirrors each zigbee device's property values into
// Redis under "device:state:<friendly_name>", so other services can read
// current state without talking to the adapter.
package statecache
