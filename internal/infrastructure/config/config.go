package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Gray Node Agent.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node     NodeConfig     `yaml:"node"`
	Console  ConsoleConfig  `yaml:"console"`
	Flash    FlashConfig    `yaml:"flash"`
	Log      LogConfig      `yaml:"log"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HA       HAConfig       `yaml:"ha"`
	Schedule ScheduleConfig `yaml:"schedule"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// NodeConfig identifies this node.
type NodeConfig struct {
	Name         string `yaml:"name"`
	FriendlyName string `yaml:"friendly_name"`
	Timezone     string `yaml:"timezone"`
	NTPServer    string `yaml:"ntp_server"`
	// MachineIDFile supplies the stable id used for MQTT client ids and
	// Home Assistant discovery. Empty falls back to the hostname.
	MachineIDFile string `yaml:"machine_id_file"`
}

// ConsoleConfig contains the serial and TCP console settings.
type ConsoleConfig struct {
	Serial SerialConfig `yaml:"serial"`
	TCP    TCPConfig    `yaml:"tcp"`
}

// SerialConfig selects the interactive console transport.
type SerialConfig struct {
	// Device is the serial port path. Empty means stdio.
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
}

// TCPConfig contains the TCP console listener settings.
type TCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// FlashConfig contains the flash store settings.
type FlashConfig struct {
	Path string `yaml:"path"`
	// CapacityBytes caps the store the way a flash partition would.
	// 0 disables the quota.
	CapacityBytes int64 `yaml:"capacity_bytes"`
}

// LogConfig contains the console logging pipeline settings. Runtime changes
// made through the `log` verbs are persisted as the ".log" env record, which
// overrides these boot defaults.
type LogConfig struct {
	LocalLevel  int    `yaml:"local_level"`
	RemoteLevel int    `yaml:"remote_level"`
	Server      string `yaml:"server"`
	Port        int    `yaml:"port"`
}

// MQTTConfig contains MQTT broker session settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig `yaml:"broker"`
	Auth      MQTTAuthConfig   `yaml:"auth"`
	QoS       int              `yaml:"qos"`
	Root      string           `yaml:"root"`
	Will      bool             `yaml:"will"`
	Heartbeat int              `yaml:"heartbeat_ms"`
	AutoStart bool             `yaml:"auto_start"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// HAConfig contains Home Assistant discovery settings.
type HAConfig struct {
	Enabled         bool   `yaml:"enabled"`
	DiscoveryPrefix string `yaml:"discovery_prefix"`
	Manufacturer    string `yaml:"manufacturer"`
	Model           string `yaml:"model"`
	ConfigURL       string `yaml:"config_url"`
}

// ScheduleConfig contains the persistent task store settings.
type ScheduleConfig struct {
	Path string `yaml:"path"`
}

// InfluxDBConfig contains the optional telemetry mirror settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains process-level (slog) logging settings. The console
// pipeline has its own levels under `log`.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYNODE_SECTION_KEY
// For example: GRAYNODE_FLASH_PATH, GRAYNODE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults. Useful when no config
// file is present.
func Default() *Config {
	return &Config{
		Node: NodeConfig{
			Name:          "graynode",
			FriendlyName:  "Gray Node",
			Timezone:      "UTC",
			NTPServer:     "pool.ntp.org",
			MachineIDFile: "/etc/machine-id",
		},
		Console: ConsoleConfig{
			Serial: SerialConfig{
				BaudRate: 115200,
			},
			TCP: TCPConfig{
				Enabled: true,
				Host:    "0.0.0.0",
				Port:    2323,
			},
		},
		Flash: FlashConfig{
			Path:          "./data/flash",
			CapacityBytes: 4 << 20,
		},
		Log: LogConfig{
			LocalLevel:  2,
			RemoteLevel: 0,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Port: 1883,
			},
			QoS:       1,
			Root:      "graynode",
			Will:      true,
			Heartbeat: 0,
		},
		HA: HAConfig{
			DiscoveryPrefix: "homeassistant",
			Manufacturer:    "Gray Logic",
			Model:           "Gray Node Agent",
		},
		Schedule: ScheduleConfig{
			Path: "./data/schedule.db",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     20,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYNODE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAYNODE_NODE_NAME"); v != "" {
		cfg.Node.Name = v
	}
	if v := os.Getenv("GRAYNODE_FLASH_PATH"); v != "" {
		cfg.Flash.Path = v
	}
	if v := os.Getenv("GRAYNODE_SCHEDULE_PATH"); v != "" {
		cfg.Schedule.Path = v
	}
	if v := os.Getenv("GRAYNODE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYNODE_MQTT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = p
		}
	}
	if v := os.Getenv("GRAYNODE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYNODE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("GRAYNODE_CONSOLE_TCP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Console.TCP.Port = p
		}
	}
	if v := os.Getenv("GRAYNODE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Node.Name == "" {
		errs = append(errs, "node.name is required")
	}
	if c.Flash.Path == "" {
		errs = append(errs, "flash.path is required")
	}
	if c.Flash.CapacityBytes < 0 {
		errs = append(errs, "flash.capacity_bytes must not be negative")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Heartbeat < 0 {
		errs = append(errs, "mqtt.heartbeat_ms must not be negative")
	}
	if c.Console.TCP.Enabled && (c.Console.TCP.Port < 1 || c.Console.TCP.Port > 65535) {
		errs = append(errs, "console.tcp.port must be between 1 and 65535")
	}
	if c.Log.LocalLevel < 0 || c.Log.LocalLevel > 4 {
		errs = append(errs, "log.local_level must be between 0 and 4")
	}
	if c.Log.RemoteLevel < 0 || c.Log.RemoteLevel > 4 {
		errs = append(errs, "log.remote_level must be between 0 and 4")
	}
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// HeartbeatPeriod returns the MQTT heartbeat period as a Duration.
// Zero means disabled.
func (c *Config) HeartbeatPeriod() time.Duration {
	return time.Duration(c.MQTT.Heartbeat) * time.Millisecond
}

// InfluxFlushInterval returns the telemetry flush interval as a Duration.
func (c *Config) InfluxFlushInterval() time.Duration {
	return time.Duration(c.InfluxDB.FlushInterval) * time.Second
}
