package console

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-node-agent/internal/token"
)

// coreFeature provides help, info and uptime.
type coreFeature struct {
	node string
}

// Core creates the base feature every console carries. node is the
// configured node name shown by info.
func Core(node string) Feature { return &coreFeature{node: node} }

func (f *coreFeature) Name() string { return "core" }

func (f *coreFeature) Begin(c *Console) error {
	return c.Dispatcher().Register("core", func(line string, quiet bool) bool {
		tok := token.New(line, " ")
		switch tok.Item(0) {
		case "help", "?":
			c.Dispatcher().PrintHelp(c.Stream())
		case "info":
			c.Info()
		case "uptime":
			c.Printf("up %s\n", formatUptime(time.Since(c.Deps().Started)))
		default:
			return false
		}
		return true
	}, "help, ?, info, uptime", "General")
}

func (f *coreFeature) Loop(c *Console, now time.Time) {}

func (f *coreFeature) Info(c *Console) {
	c.Printf("node: %s\n", f.node)
	c.Printf("uptime: %s\n", formatUptime(time.Since(c.Deps().Started)))
	if c.Deps().NTPServer != "" {
		c.Printf("ntp: %s\n", c.Deps().NTPServer)
	}
	if c.Deps().Timezone != "" {
		c.Printf("tz: %s\n", c.Deps().Timezone)
	}
}

// formatUptime renders a duration as HH:MM:SS, hours unbounded.
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
