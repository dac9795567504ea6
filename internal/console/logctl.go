package console

import (
	"time"

	"github.com/nerrad567/gray-node-agent/internal/envstore"
	"github.com/nerrad567/gray-node-agent/internal/kvconf"
	"github.com/nerrad567/gray-node-agent/internal/logging"
	"github.com/nerrad567/gray-node-agent/internal/token"
)

// logFeature adjusts the console logging pipeline at runtime and
// persists its settings as the log env record.
type logFeature struct{}

// Logging creates the log control feature.
func Logging() Feature { return &logFeature{} }

func (f *logFeature) Name() string { return "log" }

func (f *logFeature) Begin(c *Console) error {
	if err := c.Dispatcher().Register("log", f.handle(c),
		"log server, log port, log level, log save, log load", "Logging"); err != nil {
		return err
	}
	// Restore persisted settings when a record exists.
	if c.Deps().Env.Exists(envstore.NameLog) {
		f.load(c, true)
	}
	return nil
}

func (f *logFeature) Loop(c *Console, now time.Time) {}

func (f *logFeature) Info(c *Console) {
	p := c.Pipeline()
	host, port := p.Remote().Server()
	c.Printf("log: level %d, remote level %d, server %s:%d\n",
		int(p.LocalLevel()), int(p.RemoteLevel()), host, port)
}

func (f *logFeature) handle(c *Console) func(line string, quiet bool) bool {
	return func(line string, quiet bool) bool {
		tok := token.New(line, " ")
		if tok.Item(0) != "log" {
			return false
		}
		p := c.Pipeline()

		switch tok.Item(1) {
		case "server":
			_, port := p.Remote().Server()
			p.Remote().SetServer(tok.Item(2), port)
		case "port":
			host, _ := p.Remote().Server()
			p.Remote().SetServer(host, int(tok.Int(2, 0)))
		case "level":
			p.SetLocalLevel(logging.SeverityFromLevel(int(tok.Int(2, 0))))
		case "save":
			f.save(c)
		case "load":
			f.load(c, quiet)
		default:
			c.Printf("usage: log {server <host>|port <n>|level <0..4>|save|load}\n")
		}
		return true
	}
}

func (f *logFeature) save(c *Console) {
	p := c.Pipeline()
	host, port := p.Remote().Server()

	m := kvconf.New()
	m.Add("server", host)
	m.AddInt("port", int32(port))
	m.AddInt("level", int32(p.LocalLevel()))
	m.AddInt("rlevel", int32(p.RemoteLevel()))
	if err := c.Deps().Env.Save(envstore.NameLog, m.String()); err != nil {
		c.Printf("log save: %v\n", err)
	}
}

func (f *logFeature) load(c *Console, quiet bool) {
	blob, err := c.Deps().Env.Load(envstore.NameLog)
	if err != nil {
		if !quiet {
			c.Printf("log load: %v\n", err)
		}
		return
	}

	p := c.Pipeline()
	m := kvconf.Parse(blob)
	host, port := p.Remote().Server()
	p.Remote().SetServer(m.GetSz("server", host), int(m.GetInt("port", int32(port))))
	p.SetLocalLevel(logging.SeverityFromLevel(int(m.GetInt("level", int32(p.LocalLevel())))))
	p.SetRemoteLevel(logging.SeverityFromLevel(int(m.GetInt("rlevel", int32(p.RemoteLevel())))))
}
