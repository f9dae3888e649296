// Package influxdb provides optional time-series mirroring for Cube Core.
//
// SQLite remains the system of record for sensor readings; when InfluxDB
// is enabled in config, every accepted reading is additionally written to
// a bucket so dashboards can run long-range queries without loading the
// primary database.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    // ErrDisabled when turned off in config - not a failure
//	}
//	defer client.Close()
//
//	client.WriteReading(cubeID, "bme680", "living-room", 42.5)
//
// # Thread Safety
//
// All methods are safe for concurrent use. The underlying write API uses
// non-blocking batched writes; async write failures are delivered through
// the SetOnError callback.
package influxdb
