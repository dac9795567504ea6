package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-node-agent/internal/command"
	"github.com/nerrad567/gray-node-agent/internal/envstore"
	"github.com/nerrad567/gray-node-agent/internal/flashfs"
	"github.com/nerrad567/gray-node-agent/internal/hass"
	"github.com/nerrad567/gray-node-agent/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-node-agent/internal/logging"
	"github.com/nerrad567/gray-node-agent/internal/schedule"
	"github.com/nerrad567/gray-node-agent/internal/token"
	"github.com/nerrad567/gray-node-agent/internal/transfer"
)

// I2CBus probes bus addresses. Drivers live outside the agent; a nil bus
// disables the i2c feature's scan.
type I2CBus interface {
	Probe(addr byte) bool
}

// Deps are the node subsystems shared by every console instance.
type Deps struct {
	FS       *flashfs.Store
	Env      *envstore.Store
	Registry *schedule.Registry
	Tasks    *schedule.Store
	MQTT     *mqtt.Session
	HA       *hass.Discovery
	I2C      I2CBus

	// Started anchors the uptime shown by the core feature.
	Started time.Time

	// Node settings persisted as env records by save/load.
	NTPServer  string
	Timezone   string
	Led        envstore.Led
	I2CEnabled bool

	// cmdBound marks the <root>/cmd subscription as taken so TCP consoles
	// do not steal it from the serial console.
	cmdBound bool
}

// Feature is one behavioural layer of a console: a command group plus an
// optional per-tick loop and an info section.
type Feature interface {
	Name() string
	Begin(c *Console) error
	Loop(c *Console, now time.Time)
	Info(c *Console)
}

// Console binds a stream to the dispatcher, the logging pipeline and the
// feature list.
//
// Not safe for concurrent use; every console runs on the agent loop.
type Console struct {
	name     string
	stream   Stream
	pipe     *logging.Pipeline
	disp     *command.Dispatcher
	deps     *Deps
	features []Feature
	xfer     *transfer.Endpoint

	lineBuf []byte
	pending func(line string)
}

// New assembles a console and runs every feature's Begin in order.
func New(name string, stream Stream, pipe *logging.Pipeline, deps *Deps, features ...Feature) (*Console, error) {
	c := &Console{
		name:     name,
		stream:   stream,
		pipe:     pipe,
		disp:     command.NewDispatcher(),
		deps:     deps,
		features: features,
	}
	c.xfer = transfer.NewEndpoint(deps.FS,
		transfer.WithLogger(pipe),
		transfer.WithProgress(writerFunc(c.write)))
	for _, f := range features {
		if err := f.Begin(c); err != nil {
			return nil, fmt.Errorf("console %s: %s: %w", name, f.Name(), err)
		}
	}
	return c, nil
}

// Name returns the console name ("serial", "tcp:1.2.3.4").
func (c *Console) Name() string { return c.name }

// Stream returns the underlying byte channel.
func (c *Console) Stream() Stream { return c.stream }

// Pipeline returns this console's logging pipeline.
func (c *Console) Pipeline() *logging.Pipeline { return c.pipe }

// Dispatcher returns the command dispatcher features register with.
func (c *Console) Dispatcher() *command.Dispatcher { return c.disp }

// Deps returns the shared subsystems.
func (c *Console) Deps() *Deps { return c.deps }

// Printf writes formatted output to the console stream.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.stream, format, args...)
}

// Connected reports whether the underlying stream is still usable.
func (c *Console) Connected() bool { return c.stream.Connected() }

// Close releases the stream.
func (c *Console) Close() error { return c.stream.Close() }

// Prompt routes the next received line to fn instead of the dispatcher.
// Used for Y/N confirmations.
func (c *Console) Prompt(fn func(line string)) { c.pending = fn }

// Loop reads pending bytes, dispatches any complete lines and runs the
// feature loops. Called once per agent loop iteration.
func (c *Console) Loop(now time.Time) {
	var buf [256]byte
	for {
		n, err := c.stream.Read(buf[:])
		if n > 0 {
			c.feed(buf[:n])
		}
		if n == 0 || err != nil {
			break
		}
	}
	for _, f := range c.features {
		f.Loop(c, now)
	}
}

// feed accumulates bytes and handles every completed line.
func (c *Console) feed(b []byte) {
	c.lineBuf = append(c.lineBuf, b...)
	for {
		i := -1
		for j, ch := range c.lineBuf {
			if ch == '\n' {
				i = j
				break
			}
		}
		if i < 0 {
			return
		}
		line := strings.TrimRight(string(c.lineBuf[:i]), "\r")
		c.lineBuf = c.lineBuf[i+1:]
		c.Handle(line, false)
	}
}

// Handle offers one line to the pending prompt, the transfer sub-protocol
// and then the dispatcher. quiet suppresses the unknown-command notice and
// is used for lines arriving over MQTT.
func (c *Console) Handle(line string, quiet bool) bool {
	if c.pending != nil {
		fn := c.pending
		c.pending = nil
		fn(line)
		return true
	}

	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return true
	case trimmed == "$UPLOAD$" || trimmed == "$DOWNLOAD$":
		// Client tool sentinel; the header or GET follows.
		return true
	case strings.HasPrefix(trimmed, "FILE:"):
		path, size, err := transfer.ParseHeader(trimmed)
		if err != nil {
			c.Printf("ERROR: %v\n", err)
			return true
		}
		// Payload bytes may already sit in the line buffer when the
		// header and payload arrived together; hand them to the
		// receiver ahead of the live stream.
		src := &residualStream{rest: c.lineBuf, s: c.stream}
		c.lineBuf = nil
		if err := c.xfer.Receive(src, path, size); err != nil {
			c.Printf("ERROR: %v\n", err)
		}
		return true
	case strings.HasPrefix(trimmed, "GET "):
		c.xfer.Send(c.stream, strings.TrimSpace(trimmed[4:]))
		return true
	}

	if c.disp.Dispatch(trimmed, quiet) {
		return true
	}
	if !quiet {
		tok := token.New(trimmed, " ")
		c.Printf("%s: command not found\n", tok.Item(0))
	}
	return false
}

// Info prints every feature's info section.
func (c *Console) Info() {
	for _, f := range c.features {
		f.Info(c)
	}
}

// residualStream replays already-buffered bytes before returning to the
// live stream.
type residualStream struct {
	rest []byte
	s    Stream
}

func (r *residualStream) Read(p []byte) (int, error) {
	if len(r.rest) > 0 {
		n := copy(p, r.rest)
		r.rest = r.rest[n:]
		return n, nil
	}
	return r.s.Read(p)
}

func (r *residualStream) Write(p []byte) (int, error) { return r.s.Write(p) }

// writerFunc lets the transfer progress bar write through Console.write.
type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func (c *Console) write(p []byte) (int, error) { return c.stream.Write(p) }
