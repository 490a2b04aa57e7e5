package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteEngineStat writes a single engine counter sample.
//
// This is the primary method for recording scheduler and dispatcher
// telemetry. The write is non-blocking; data is batched and sent
// asynchronously.
//
// Parameters:
//   - metric: The counter name (e.g., "frames_emitted", "commands_applied")
//   - value: The counter value or delta
//
// Example:
//
//	client.WriteEngineStat("frames_emitted", 40.0)
//	client.WriteEngineStat("overruns", 1.0)
func (c *Client) WriteEngineStat(metric string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"engine_stats",
		map[string]string{
			"metric": metric,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCommandOutcome records one processed command.
//
// Used for tracking command throughput and rejection rates per kind.
//
// Parameters:
//   - kind: Command kind (set, fade, scene, blackout)
//   - status: Final outcome (applied, rejected)
func (c *Client) WriteCommandOutcome(kind, status string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"commands",
		map[string]string{
			"kind":   kind,
			"status": status,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteChannelValue records one channel's current intensity.
//
// Channel addresses are low cardinality (at most 512), so the address is
// a tag and queries can group by it.
//
// Parameters:
//   - channel: Channel address within the universe
//   - value: Current intensity, 0-255
func (c *Client) WriteChannelValue(channel int, value uint8) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"channel_values",
		map[string]string{
			"channel": strconv.Itoa(channel),
		},
		map[string]interface{}{
			"value": int(value),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
