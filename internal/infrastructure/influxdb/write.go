package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// infoMeasurement is the measurement carrying the node gauges.
const infoMeasurement = "graynode_info"

// WriteInfo records one sample of the node gauges: the same freemem,
// fragmentation and uptime values published on the MQTT info topics. The
// write is non-blocking and batched.
func (c *Client) WriteInfo(node string, freeMem uint64, fragmentation float64, uptimeMS int64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		infoMeasurement,
		map[string]string{
			"node": node,
		},
		map[string]interface{}{
			"freemem":       float64(freeMem),
			"fragmentation": fragmentation,
			"uptime_ms":     uptimeMS,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
