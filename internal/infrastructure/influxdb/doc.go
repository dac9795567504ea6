// Package influxdb mirrors the node's telemetry gauges into InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. When enabled in the
// YAML config, the same freemem/fragmentation/uptime gauges the MQTT session
// publishes under info/* are also written as time-series points, so a fleet
// of nodes can be graphed without an MQTT-to-Influx bridge.
//
// Disabled by default; the agent behaves identically without it.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "graylogic",
//	    Bucket:  "nodes",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteInfo("graynode", 48128, 12.5, 3600000)
//
// # Write Semantics
//
// Writes are non-blocking: points are batched and flushed on an interval.
// Asynchronous write failures surface through the SetOnError callback.
package influxdb
