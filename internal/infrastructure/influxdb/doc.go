// Package influxdb writes zigbee telemetry to InfluxDB v2.
//
// Numeric and boolean property changes become zigbee_property points and
// device events become zigbee_event points. Writes go through the client
// library's non-blocking batching API; asynchronous failures are reported
// through SetOnError.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	hosts = append(hosts, influxdb.NewRecorder(client))
package influxdb
