// Gray Node Agent
//
// graynode is the on-device agent of the Gray Logic family: an
// interactive administrative console reachable over serial and TCP,
// with a quota-managed flash store, scheduled command execution, and an
// MQTT session with Home Assistant discovery. Everything runs on one
// cooperative loop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nerrad567/gray-node-agent/internal/console"
	"github.com/nerrad567/gray-node-agent/internal/envstore"
	"github.com/nerrad567/gray-node-agent/internal/flashfs"
	"github.com/nerrad567/gray-node-agent/internal/hass"
	"github.com/nerrad567/gray-node-agent/internal/infrastructure/config"
	"github.com/nerrad567/gray-node-agent/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-node-agent/internal/infrastructure/logging"
	"github.com/nerrad567/gray-node-agent/internal/infrastructure/mqtt"
	consolelog "github.com/nerrad567/gray-node-agent/internal/logging"
	"github.com/nerrad567/gray-node-agent/internal/schedule"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// loopInterval paces the cooperative loop. Every subsystem tick is
// bounded, so a short interval keeps the console responsive without
// spinning.
const loopInterval = 10 * time.Millisecond

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Node Agent",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "node", cfg.Node.Name)

	// Flash store. A mount failure is logged, not fatal: the console
	// still runs and mount can be retried interactively.
	fs := flashfs.New(cfg.Flash.Path, cfg.Flash.CapacityBytes)
	if err := fs.Mount(); err != nil {
		log.Error("flash mount failed", "path", cfg.Flash.Path, "error", err)
	} else {
		log.Info("flash mounted", "path", cfg.Flash.Path, "capacity", cfg.Flash.CapacityBytes)
	}
	env := envstore.New(fs)

	// Timer persistence. Also non-fatal: without the store timers work,
	// they just do not survive restarts.
	var tasks *schedule.Store
	if cfg.Schedule.Path != "" {
		tasks, err = schedule.OpenStore(cfg.Schedule.Path)
		if err != nil {
			log.Error("timer store unavailable", "path", cfg.Schedule.Path, "error", err)
		} else {
			defer tasks.Close()
		}
	}

	// The registry's runner feeds fired command lines back through the
	// serial console, quiet. serial is assigned below, before the first
	// tick can fire anything.
	var serial *console.Console
	registry := schedule.NewRegistry(func(command string) {
		if serial != nil {
			serial.Handle(command, true)
		}
	})
	registry.SetLogger(log)
	if tasks != nil {
		registry.SetRecorder(func(taskID string, firedAt time.Time) {
			if err := tasks.RecordExecution(taskID, firedAt, ""); err != nil {
				log.Error("recording timer execution failed", "task", taskID, "error", err)
			}
		})
	}

	// Serial console stream and its logging pipeline.
	stream, err := openConsoleStream(cfg)
	if err != nil {
		return fmt.Errorf("opening console stream: %w", err)
	}
	sink := consolelog.NewRemoteSink(cfg.Log.Server, cfg.Log.Port)
	pipe := consolelog.NewPipeline(stream, sink)
	pipe.SetLocalLevel(consolelog.SeverityFromLevel(cfg.Log.LocalLevel))
	pipe.SetRemoteLevel(consolelog.SeverityFromLevel(cfg.Log.RemoteLevel))

	session := mqtt.NewSession(cfg.MQTT, mqtt.WithLogger(pipe))

	device := hass.Device{
		ID:           hass.StableID(cfg.Node.Name, cfg.Node.MachineIDFile),
		Name:         cfg.Node.Name,
		FriendlyName: cfg.Node.FriendlyName,
		Manufacturer: cfg.HA.Manufacturer,
		Model:        cfg.HA.Model,
		SWVersion:    version,
		ConfigURL:    cfg.HA.ConfigURL,
	}
	discovery := hass.New(device, cfg.HA.DiscoveryPrefix, session)
	for _, e := range hass.BuiltinEntities() {
		if err := discovery.Register(e); err != nil {
			log.Error("registering discovery entity failed", "entity", e.ID, "error", err)
		}
	}

	deps := &console.Deps{
		FS:        fs,
		Env:       env,
		Registry:  registry,
		Tasks:     tasks,
		MQTT:      session,
		HA:        discovery,
		Started:   time.Now(),
		NTPServer: cfg.Node.NTPServer,
		Timezone:  cfg.Node.Timezone,
	}
	restoreEnv(deps, log)

	features := func() []console.Feature {
		return []console.Feature{
			console.Core(cfg.Node.Name),
			console.Filesystem(),
			console.Logging(),
			console.Timers(),
			console.MQTT(),
			console.HomeAssistant(),
			console.I2C(),
		}
	}

	serial, err = console.New("serial", stream, pipe, deps, features()...)
	if err != nil {
		return fmt.Errorf("creating serial console: %w", err)
	}
	defer serial.Close()

	// Persisted subsystem settings override the YAML boot defaults.
	for _, name := range []string{envstore.NameMQTT, envstore.NameHA, envstore.NameI2C} {
		if env.Exists(name) {
			serial.Handle(name+" load", true)
		}
	}
	if env.Exists(envstore.NameTimer) {
		serial.Handle("timer load", true)
	}

	// TCP console server. Client pipelines share the remote sink state
	// but never forward to it.
	var server *console.Server
	if cfg.Console.TCP.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.Console.TCP.Host, cfg.Console.TCP.Port)
		factory := func(name string, s console.Stream) (*console.Console, error) {
			clientPipe := consolelog.NewPipeline(s, sink, consolelog.SuppressRemote())
			clientPipe.SetLocalLevel(pipe.LocalLevel())
			return console.New(name, s, clientPipe, deps, features()...)
		}
		server, err = console.Listen(addr, factory, log)
		if err != nil {
			return fmt.Errorf("starting console server: %w", err)
		}
		defer server.Close()
		log.Info("console server listening", "addr", server.Addr().String())
	}

	// Connect to the broker the env replay left on the session, not the
	// YAML one: a persisted "mqtt save" wins over the boot default.
	if host, port := session.Broker(); cfg.MQTT.AutoStart && host != "" {
		if err := session.Start(host, port); err != nil {
			log.Warn("mqtt autostart failed", "broker", host, "error", err)
		}
	}
	defer session.Stop()

	if cfg.HA.Enabled {
		if err := discovery.Enable(); err != nil {
			log.Warn("ha discovery enable failed", "error", err)
		}
	}

	// Optional telemetry mirror: the gauges published on the info
	// topics also land in InfluxDB on the same cadence.
	if cfg.InfluxDB.Enabled {
		influx, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			log.Error("influxdb unavailable", "url", cfg.InfluxDB.URL, "error", err)
		} else {
			defer influx.Close()
			influx.SetOnError(func(err error) {
				log.Error("influxdb write error", "error", err)
			})
			started := deps.Started
			registry.Add(schedule.NewPeriodic(60_000, "", func() {
				free, frag := heapGauges()
				influx.WriteInfo(cfg.Node.Name, free, frag, time.Since(started).Milliseconds())
			}))
			log.Info("telemetry mirror enabled", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		}
	}

	log.Info("initialisation complete")

	ticker := time.NewTicker(loopInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			return nil
		case now := <-ticker.C:
			serial.Loop(now)
			registry.Tick(now)
			session.Loop(now)
			if server != nil {
				server.Poll(now)
			}
		}
	}
}

// openConsoleStream opens the configured serial device, or stdio when
// none is set (bench use).
func openConsoleStream(cfg *config.Config) (console.Stream, error) {
	if cfg.Console.Serial.Device == "" {
		return console.NewStdioStream(), nil
	}
	return console.OpenSerial(cfg.Console.Serial.Device, cfg.Console.Serial.BaudRate)
}

// restoreEnv applies the node-level records (ntp, tz, led) over the
// YAML defaults when they exist.
func restoreEnv(deps *console.Deps, log *logging.Logger) {
	if v, err := deps.Env.Load(envstore.NameNTP); err == nil {
		deps.NTPServer = v
	}
	if v, err := deps.Env.Load(envstore.NameTZ); err == nil {
		deps.Timezone = v
	}
	if v, err := deps.Env.Load(envstore.NameLed); err == nil {
		led, err := envstore.ParseLed(v)
		if err != nil {
			log.Warn("bad led record", "value", v, "error", err)
			return
		}
		deps.Led = led
	}
}

// heapGauges mirrors the gauges the MQTT session publishes on its info
// topics.
func heapGauges() (uint64, float64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	free := m.HeapIdle - m.HeapReleased
	var frag float64
	if m.HeapSys > 0 {
		frag = float64(m.HeapIdle) / float64(m.HeapSys) * 100
	}
	return free, frag
}

// getConfigPath returns the configuration file path.
// Uses GRAYNODE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYNODE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
