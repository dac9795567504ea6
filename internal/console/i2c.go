package console

import (
	"time"

	"github.com/nerrad567/gray-node-agent/internal/envstore"
	"github.com/nerrad567/gray-node-agent/internal/kvconf"
	"github.com/nerrad567/gray-node-agent/internal/token"
)

// Valid 7-bit address range for a bus scan.
const (
	i2cScanFirst byte = 0x03
	i2cScanLast  byte = 0x77
)

// i2cFeature exposes the injected bus probe and owns the i2c env record.
// Device drivers live outside the agent.
type i2cFeature struct{}

// I2C creates the bus feature.
func I2C() Feature { return &i2cFeature{} }

func (f *i2cFeature) Name() string { return "i2c" }

func (f *i2cFeature) Begin(c *Console) error {
	return c.Dispatcher().Register("i2c", f.handle(c),
		"i2c enable, i2c list, i2c scan, i2c save, i2c load", "I2C bus")
}

func (f *i2cFeature) Loop(c *Console, now time.Time) {}

func (f *i2cFeature) Info(c *Console) {
	state := "disabled"
	if c.Deps().I2CEnabled {
		state = "enabled"
	}
	c.Printf("i2c: %s\n", state)
}

func (f *i2cFeature) handle(c *Console) func(line string, quiet bool) bool {
	return func(line string, quiet bool) bool {
		tok := token.New(line, " ")
		if tok.Item(0) != "i2c" {
			return false
		}

		switch tok.Item(1) {
		case "enable":
			switch tok.Item(2) {
			case "0":
				c.Deps().I2CEnabled = false
			case "1", "":
				c.Deps().I2CEnabled = true
			default:
				c.Printf("usage: i2c enable {0|1}\n")
			}
		case "list":
			f.list(c)
		case "scan":
			f.scan(c)
		case "save":
			f.save(c)
		case "load":
			f.load(c, quiet)
		default:
			c.Printf("usage: i2c {enable {0|1}|list|scan|save|load}\n")
		}
		return true
	}
}

func (f *i2cFeature) list(c *Console) {
	t := NewTable("SETTING", "VALUE")
	state := "disabled"
	if c.Deps().I2CEnabled {
		state = "enabled"
	}
	t.Row("bus", state)
	if c.Deps().I2C == nil {
		t.Row("probe", "unavailable")
	}
	t.Print(c.Stream())
}

func (f *i2cFeature) scan(c *Console) {
	deps := c.Deps()
	if !deps.I2CEnabled {
		c.Printf("i2c: disabled\n")
		return
	}
	if deps.I2C == nil {
		c.Printf("i2c: no bus\n")
		return
	}

	var found int
	for addr := i2cScanFirst; addr <= i2cScanLast; addr++ {
		if deps.I2C.Probe(addr) {
			c.Printf("device at 0x%02x\n", addr)
			found++
		}
	}
	c.Printf("%d devices found\n", found)
}

func (f *i2cFeature) save(c *Console) {
	enabled := int32(0)
	if c.Deps().I2CEnabled {
		enabled = 1
	}
	m := kvconf.New()
	m.AddInt("enabled", enabled)
	if err := c.Deps().Env.Save(envstore.NameI2C, m.String()); err != nil {
		c.Printf("i2c save: %v\n", err)
	}
}

func (f *i2cFeature) load(c *Console, quiet bool) {
	blob, err := c.Deps().Env.Load(envstore.NameI2C)
	if err != nil {
		if !quiet {
			c.Printf("i2c load: %v\n", err)
		}
		return
	}
	m := kvconf.Parse(blob)
	c.Deps().I2CEnabled = m.GetBool("enabled", c.Deps().I2CEnabled)
}
