package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteControlValue records an observed control value change.
//
// This is the primary history sink: every control-value fact that survives
// reconciliation is written here so dashboards can chart sensor readings and
// relay switching over time. The write is non-blocking; data is batched and
// sent asynchronously.
//
// Numeric payloads are stored as a float field alongside the raw string so
// both charting and exact-replay queries work.
//
// Parameters:
//   - deviceID: Controller-assigned device identifier (e.g. "wb-mr6-1")
//   - controlID: Control identifier on that device (e.g. "K1")
//   - value: The raw value payload as delivered by the controller
func (c *Client) WriteControlValue(deviceID, controlID, value string) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"raw": value,
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		fields["value"] = f
	}

	point := write.NewPoint(
		"control_value",
		map[string]string{
			"device_id":  deviceID,
			"control_id": controlID,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteGroupState records a lighting group state transition.
//
// Parameters:
//   - location: Group natural key (e.g. "kitchen")
//   - on: Whether the group was switched on
func (c *Client) WriteGroupState(location string, on bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"group_state",
		map[string]string{
			"location": location,
		},
		map[string]interface{}{
			"on": on,
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
