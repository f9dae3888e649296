package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading mirrors an accepted sensor reading to InfluxDB.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Drops silently when the client is disconnected - SQLite is the system
// of record, the mirror is best-effort.
//
// Example:
//
//	client.WriteReading(cubeID, "bme680", "living-room", 42.5)
func (c *Client) WriteReading(cubeID, sensorType, location string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"cube_id":     cubeID,
			"sensor_type": sensorType,
			"location":    location,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAirQuality records the rolling IAQ mean computed by the feedback
// loop, tagged with the color band that was (or was not) published.
func (c *Client) WriteAirQuality(cubeID string, mean float64, published bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"air_quality",
		map[string]string{
			"cube_id": cubeID,
		},
		map[string]interface{}{
			"mean":      mean,
			"published": published,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
