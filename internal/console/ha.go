package console

import (
	"time"

	"github.com/nerrad567/gray-node-agent/internal/envstore"
	"github.com/nerrad567/gray-node-agent/internal/kvconf"
	"github.com/nerrad567/gray-node-agent/internal/token"
)

// haFeature drives Home Assistant discovery and owns the ha env record.
type haFeature struct{}

// HomeAssistant creates the discovery feature.
func HomeAssistant() Feature { return &haFeature{} }

func (f *haFeature) Name() string { return "ha" }

func (f *haFeature) Begin(c *Console) error {
	return c.Dispatcher().Register("ha", f.handle(c),
		"ha enable, ha list, ha save, ha load", "Home Assistant")
}

func (f *haFeature) Loop(c *Console, now time.Time) {}

func (f *haFeature) Info(c *Console) {
	d := c.Deps().HA
	if d == nil {
		c.Printf("ha: not configured\n")
		return
	}
	state := "disabled"
	if d.Enabled() {
		state = "enabled"
	}
	c.Printf("ha: %s, %d entities\n", state, len(d.Entities()))
}

func (f *haFeature) handle(c *Console) func(line string, quiet bool) bool {
	return func(line string, quiet bool) bool {
		tok := token.New(line, " ")
		if tok.Item(0) != "ha" {
			return false
		}
		d := c.Deps().HA
		if d == nil {
			c.Printf("ha: not configured\n")
			return true
		}

		switch tok.Item(1) {
		case "enable":
			var err error
			switch tok.Item(2) {
			case "0":
				err = d.Disable()
			case "1", "":
				err = d.Enable()
			default:
				c.Printf("usage: ha enable {0|1}\n")
			}
			if err != nil {
				c.Printf("ha enable: %v\n", err)
			}
		case "list":
			f.list(c)
		case "save":
			f.save(c)
		case "load":
			f.load(c, quiet)
		default:
			c.Printf("usage: ha {enable {0|1}|list|save|load}\n")
		}
		return true
	}
}

func (f *haFeature) list(c *Console) {
	d := c.Deps().HA
	t := NewTable("ENTITY", "COMPONENT", "STATE TOPIC")
	for _, e := range d.Entities() {
		t.Row(e.ID, e.Component, e.StateTopic)
	}
	t.Print(c.Stream())
}

func (f *haFeature) save(c *Console) {
	enabled := int32(0)
	if c.Deps().HA.Enabled() {
		enabled = 1
	}
	m := kvconf.New()
	m.AddInt("enabled", enabled)
	if err := c.Deps().Env.Save(envstore.NameHA, m.String()); err != nil {
		c.Printf("ha save: %v\n", err)
	}
}

func (f *haFeature) load(c *Console, quiet bool) {
	blob, err := c.Deps().Env.Load(envstore.NameHA)
	if err != nil {
		if !quiet {
			c.Printf("ha load: %v\n", err)
		}
		return
	}

	d := c.Deps().HA
	m := kvconf.Parse(blob)
	if m.GetBool("enabled", d.Enabled()) {
		err = d.Enable()
	} else {
		err = d.Disable()
	}
	if err != nil && !quiet {
		c.Printf("ha load: %v\n", err)
	}
}
