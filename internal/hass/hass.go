package hass

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultPrefix is the conventional Home Assistant discovery prefix.
const DefaultPrefix = "homeassistant"

// ErrNoSession is returned when discovery is enabled without a connected
// publisher.
var ErrNoSession = errors.New("hass: no mqtt session")

// Device is the identity shared by all of the node's entities.
type Device struct {
	ID           string
	Name         string
	FriendlyName string
	Manufacturer string
	Model        string
	SWVersion    string
	HWVersion    string
	ConfigURL    string
}

// Entity is one discoverable entity. Topics are relative to the node's
// MQTT root.
type Entity struct {
	ID           string
	Component    string
	Name         string
	StateTopic   string
	CommandTopic string
	Unit         string
	DeviceClass  string
	Icon         string
}

// Publisher is the slice of the MQTT session discovery needs.
type Publisher interface {
	PublishString(topic, payload string, qos byte, retained bool) error
	Root() string
}

// configPayload is the discovery JSON Home Assistant expects.
type configPayload struct {
	Name              string        `json:"name"`
	UniqueID          string        `json:"unique_id"`
	StateTopic        string        `json:"state_topic,omitempty"`
	CommandTopic      string        `json:"command_topic,omitempty"`
	AvailabilityTopic string        `json:"availability_topic"`
	Unit              string        `json:"unit_of_measurement,omitempty"`
	DeviceClass       string        `json:"device_class,omitempty"`
	Icon              string        `json:"icon,omitempty"`
	Device            devicePayload `json:"device"`
}

type devicePayload struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	SWVersion    string   `json:"sw_version,omitempty"`
	HWVersion    string   `json:"hw_version,omitempty"`
	ConfigURL    string   `json:"configuration_url,omitempty"`
}

// Discovery manages the node's discovery records.
//
// Not safe for concurrent use; driven from the cooperative loop.
type Discovery struct {
	device   Device
	prefix   string
	pub      Publisher
	entities []Entity
	enabled  bool
}

// New returns a Discovery for device publishing through pub. An empty
// prefix falls back to DefaultPrefix.
func New(device Device, prefix string, pub Publisher) *Discovery {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Discovery{device: device, prefix: prefix, pub: pub}
}

// Register adds an entity, replacing any previous entity with the same ID.
// When discovery is already enabled the config is published immediately.
func (d *Discovery) Register(e Entity) error {
	replaced := false
	for i := range d.entities {
		if d.entities[i].ID == e.ID {
			d.entities[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		d.entities = append(d.entities, e)
	}
	if d.enabled {
		return d.publishConfig(e)
	}
	return nil
}

// Entities returns the registered entities in registration order.
func (d *Discovery) Entities() []Entity {
	out := make([]Entity, len(d.entities))
	copy(out, d.entities)
	return out
}

// Enabled reports whether discovery records are currently published.
func (d *Discovery) Enabled() bool { return d.enabled }

// Enable publishes every entity's discovery config retained.
func (d *Discovery) Enable() error {
	if d.pub == nil {
		return ErrNoSession
	}
	for _, e := range d.entities {
		if err := d.publishConfig(e); err != nil {
			return err
		}
	}
	d.enabled = true
	return nil
}

// Disable unregisters every entity by publishing empty payloads to the
// discovery topics.
func (d *Discovery) Disable() error {
	if d.pub == nil {
		return ErrNoSession
	}
	for _, e := range d.entities {
		if err := d.pub.PublishString(d.configTopic(e), "", 1, true); err != nil {
			return err
		}
	}
	d.enabled = false
	return nil
}

// AvailabilityTopic returns the absolute topic entities watch for
// online/offline.
func (d *Discovery) AvailabilityTopic() string {
	return d.pub.Root() + "/status"
}

func (d *Discovery) publishConfig(e Entity) error {
	payload := configPayload{
		Name:              e.Name,
		UniqueID:          d.device.ID + "_" + e.ID,
		AvailabilityTopic: d.AvailabilityTopic(),
		Unit:              e.Unit,
		DeviceClass:       e.DeviceClass,
		Icon:              e.Icon,
		Device: devicePayload{
			Identifiers:  []string{d.device.ID},
			Name:         d.device.FriendlyName,
			Manufacturer: d.device.Manufacturer,
			Model:        d.device.Model,
			SWVersion:    d.device.SWVersion,
			HWVersion:    d.device.HWVersion,
			ConfigURL:    d.device.ConfigURL,
		},
	}
	if e.StateTopic != "" {
		payload.StateTopic = d.pub.Root() + "/" + e.StateTopic
	}
	if e.CommandTopic != "" {
		payload.CommandTopic = d.pub.Root() + "/" + e.CommandTopic
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("hass: encoding %s: %w", e.ID, err)
	}
	return d.pub.PublishString(d.configTopic(e), string(body), 1, true)
}

// configTopic is absolute: the leading slash keeps the session from
// prefixing the node root.
func (d *Discovery) configTopic(e Entity) string {
	return "/" + d.prefix + "/" + e.Component + "/" + d.device.ID + "/" + e.ID + "/config"
}

// BuiltinEntities returns the node's stock entities: uptime, free heap and
// RSSI sensors plus the status LED switch.
func BuiltinEntities() []Entity {
	return []Entity{
		{
			ID:         "uptime",
			Component:  "sensor",
			Name:       "Uptime",
			StateTopic: "info/uptime",
			Unit:       "ms",
			Icon:       "mdi:timer-outline",
		},
		{
			ID:          "freemem",
			Component:   "sensor",
			Name:        "Free Memory",
			StateTopic:  "info/freemem",
			Unit:        "B",
			DeviceClass: "data_size",
		},
		{
			ID:          "rssi",
			Component:   "sensor",
			Name:        "RSSI",
			StateTopic:  "info/rssi",
			Unit:        "dBm",
			DeviceClass: "signal_strength",
		},
		{
			ID:           "led",
			Component:    "switch",
			Name:         "Status LED",
			StateTopic:   "led/state",
			CommandTopic: "led/set",
			Icon:         "mdi:led-outline",
		},
	}
}

// StableID derives the device id from the machine id file, falling back to
// the hostname. The result is prefixed with the node name so several nodes
// on one broker stay distinct.
func StableID(nodeName, machineIDFile string) string {
	if machineIDFile != "" {
		if b, err := os.ReadFile(machineIDFile); err == nil {
			id := strings.TrimSpace(string(b))
			if len(id) > 8 {
				id = id[:8]
			}
			if id != "" {
				return nodeName + "-" + id
			}
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return nodeName + "-" + host
	}
	return nodeName
}
