// Package mqtt maintains the node's single broker session.
//
// A Session wraps paho.mqtt.golang with the lifecycle the console exposes:
// an explicit TCP reachability probe before connecting, a last-will that
// marks the node offline, a topic-prefixed subscription registry restored on
// reconnect, and periodic heartbeat and info gauges.
//
// # State machine
//
// A session is in exactly one of {Disconnected, Probing, Connected, Lost}.
// Start probes the broker with a plain TCP dial; on success it moves to
// Probing and issues the MQTT CONNECT, reaching Connected when the broker
// accepts. A lost connection moves to Lost, where the session re-probes
// every 60 seconds and reconnects when the broker answers again.
//
// # Topic prefixing
//
// Publish and Subscribe prepend the configured root unless the topic starts
// with '/', which addresses an absolute topic with the slash stripped
// ("/homeassistant/x" publishes to "homeassistant/x").
//
// # Loop integration
//
// Inbound messages and connection events are queued on an inbox and only
// applied during Loop, so subscription callbacks run on the cooperative
// loop, serialised with command dispatch.
//
// # Usage
//
//	sess := mqtt.NewSession(cfg.MQTT)
//	if err := sess.Start("broker.local", 1883); err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Stop()
//
//	sess.Subscribe("cmd", func(topic string, payload []byte) {
//	    // runs during Loop
//	})
//	for {
//	    sess.Loop(time.Now())
//	}
package mqtt
