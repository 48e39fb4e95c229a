// Package logging provides structured logging for the Zigbee bridge.
//
// It wraps log/slog so every component logs with the same default fields
// (service, version) and the same level filtering.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	bridgeLog := logger.Component("zigbee")
//	bridgeLog.Info("device added", "device_id", id, "model", model)
//
// Never log MQTT passwords, InfluxDB tokens or JWT secrets.
package logging
