// Package hass publishes Home Assistant MQTT discovery records for the
// node.
//
// Each registered entity becomes one retained JSON config on
// "<prefix>/<component>/<device-id>/<entity-id>/config". Home Assistant
// picks the record up and creates the entity, binding its state and command
// topics under the node's MQTT root. Disabling discovery publishes empty
// payloads to the same topics, which unregisters the entities.
//
// Availability rides on the session status topic: the broker holds "online"
// retained while the node is connected and flips it to "offline" through
// the last-will, so entities grey out when the node drops.
//
// The device identity (name, manufacturer, versions, stable id) is shared
// by every entity so Home Assistant groups them under one device.
package hass
