// Package influxdb provides time-series history storage for the Wirebus gateway.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking batched writes, and health monitoring.
//
// # Purpose
//
// This package records:
//   - Control-value changes (sensor readings, relay states)
//   - Lighting group state transitions
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteControlValue("wb-mr6-1", "K1", "1")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors surface via the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
