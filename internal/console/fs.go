package console

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nerrad567/gray-node-agent/internal/envstore"
	"github.com/nerrad567/gray-node-agent/internal/flashfs"
	"github.com/nerrad567/gray-node-agent/internal/token"
)

// fsFeature exposes the flash store over the console and owns the
// ntp/tz/led env records.
type fsFeature struct{}

// Filesystem creates the flash filesystem feature.
func Filesystem() Feature { return &fsFeature{} }

func (f *fsFeature) Name() string { return "fs" }

func (f *fsFeature) Begin(c *Console) error {
	return c.Dispatcher().Register("fs", f.handle(c),
		"ls, cat, cp, rm, touch, du, df, size, mount, umount, format, fs, save, load",
		"Filesystem")
}

func (f *fsFeature) Loop(c *Console, now time.Time) {}

func (f *fsFeature) Info(c *Console) {
	fs := c.Deps().FS
	if !fs.Mounted() {
		c.Printf("flash: not mounted\n")
		return
	}
	info, err := fs.Info()
	if err != nil {
		c.Printf("flash: %v\n", err)
		return
	}
	c.Printf("flash: %d used, %d free\n", info.Used, info.Free)
}

func (f *fsFeature) handle(c *Console) func(line string, quiet bool) bool {
	return func(line string, quiet bool) bool {
		tok := token.New(line, " ")
		verb := tok.Item(0)
		fs := c.Deps().FS

		switch verb {
		case "mount":
			if err := fs.Mount(); err != nil {
				c.Printf("mount: %v\n", err)
			}
			return true
		case "umount":
			fs.Unmount()
			return true
		case "fs":
			if fs.Mounted() {
				c.Printf("mounted\n")
			} else {
				c.Printf("filesystem not mounted\n")
			}
			return true
		case "format":
			f.format(c)
			return true
		case "save", "load":
			return f.envVerb(c, verb, tok.Item(1))
		case "ls", "cat", "cp", "rm", "touch", "du", "df", "size":
			// fall through to the mounted-only verbs below
		default:
			return false
		}

		if !fs.Mounted() {
			c.Printf("filesystem not mounted\n")
			return true
		}

		switch verb {
		case "ls":
			f.list(c, tok.Item(1))
		case "cat":
			f.cat(c, tok.Item(1))
		case "cp":
			if err := fs.Copy(tok.Item(1), tok.Item(2)); err != nil {
				f.pathError(c, "cp", tok.Item(1), err)
			}
		case "rm":
			if err := fs.Remove(tok.Item(1)); err != nil {
				f.pathError(c, "rm", tok.Item(1), err)
			}
		case "touch":
			if err := fs.Touch(tok.Item(1)); err != nil {
				f.pathError(c, "touch", tok.Item(1), err)
			}
		case "du":
			f.du(c, tok.Item(1))
		case "df":
			f.df(c)
		case "size":
			info, err := fs.Info()
			if err != nil {
				c.Printf("size: %v\n", err)
				break
			}
			c.Printf("%d\n", info.Capacity)
		}
		return true
	}
}

// format needs the store unmounted and an interactive confirmation.
func (f *fsFeature) format(c *Console) {
	fs := c.Deps().FS
	if fs.Mounted() {
		c.Printf("format: umount first\n")
		return
	}
	c.Printf("format: erase all files? [y/N] ")
	c.Prompt(func(line string) {
		switch strings.TrimSpace(line) {
		case "y", "Y":
			if err := fs.Format(); err != nil {
				c.Printf("format: %v\n", err)
				return
			}
			c.Printf("format: done\n")
		default:
			c.Printf("format: aborted\n")
		}
	})
}

func (f *fsFeature) list(c *Console, flags string) {
	all := flags == "-a" || flags == "-la" || flags == "-al"
	long := flags == "-l" || flags == "-la" || flags == "-al"

	entries, err := c.Deps().FS.List()
	if err != nil {
		c.Printf("ls: %v\n", err)
		return
	}

	var t *Table
	if long {
		t = NewTable("SIZE", "MODIFIED", "PATH")
	}
	for _, e := range entries {
		if !all && strings.HasPrefix(e.Path[strings.LastIndex(e.Path, "/")+1:], ".") {
			continue
		}
		name := e.Path
		if e.Dir {
			name += "/"
		}
		if long {
			t.Row(fmt.Sprintf("%d", e.Size), e.ModTime.Format("2006-01-02 15:04:05"), name)
		} else {
			c.Printf("%s\n", name)
		}
	}
	if long {
		t.Print(c.Stream())
	}
}

func (f *fsFeature) cat(c *Console, path string) {
	r, err := c.Deps().FS.Open(path)
	if err != nil {
		f.pathError(c, "cat", path, err)
		return
	}
	defer r.Close()
	if _, err := io.Copy(c.Stream(), r); err != nil {
		c.Printf("cat: %s: %v\n", path, err)
		return
	}
	c.Printf("\n")
}

// du with a path prints "<size> <path>"; without, every file plus a
// total.
func (f *fsFeature) du(c *Console, path string) {
	fs := c.Deps().FS
	if path != "" {
		st, err := fs.Stat(path)
		if err != nil {
			f.pathError(c, "du", path, err)
			return
		}
		c.Printf("%d %s\n", st.Size, st.Path)
		return
	}

	entries, err := fs.List()
	if err != nil {
		c.Printf("du: %v\n", err)
		return
	}
	var total int64
	for _, e := range entries {
		if e.Dir {
			continue
		}
		total += e.Size
		c.Printf("%d %s\n", e.Size, e.Path)
	}
	c.Printf("%d total\n", total)
}

func (f *fsFeature) df(c *Console) {
	info, err := c.Deps().FS.Info()
	if err != nil {
		c.Printf("df: %v\n", err)
		return
	}
	t := NewTable("CAPACITY", "USED", "FREE")
	t.Row(fmt.Sprintf("%d", info.Capacity), fmt.Sprintf("%d", info.Used),
		fmt.Sprintf("%d", info.Free))
	t.Print(c.Stream())
}

// envVerb persists or restores the node-level records (ntp, tz, led).
// Subsystem records (log, mqtt, ha, i2c, timer) belong to their own
// features and are left unclaimed here.
func (f *fsFeature) envVerb(c *Console, verb, name string) bool {
	switch name {
	case envstore.NameNTP, envstore.NameTZ, envstore.NameLed:
	default:
		return false
	}

	deps := c.Deps()
	if verb == "save" {
		var value string
		switch name {
		case envstore.NameNTP:
			value = deps.NTPServer
		case envstore.NameTZ:
			value = deps.Timezone
		case envstore.NameLed:
			value = deps.Led.String()
		}
		if err := deps.Env.Save(name, value); err != nil {
			f.envError(c, verb, name, err)
		}
		return true
	}

	value, err := deps.Env.Load(name)
	if err != nil {
		f.envError(c, verb, name, err)
		return true
	}
	switch name {
	case envstore.NameNTP:
		deps.NTPServer = value
	case envstore.NameTZ:
		deps.Timezone = value
	case envstore.NameLed:
		led, err := envstore.ParseLed(value)
		if err != nil {
			c.Printf("load: %s: %v\n", name, err)
			return true
		}
		deps.Led = led
	}
	c.Printf("%s\n", value)
	return true
}

func (f *fsFeature) envError(c *Console, verb, name string, err error) {
	if errors.Is(err, flashfs.ErrNotMounted) {
		c.Printf("filesystem not mounted\n")
		return
	}
	if errors.Is(err, flashfs.ErrNotFound) {
		c.Printf("%s: .%s: No such file or directory\n", verb, name)
		return
	}
	c.Printf("%s: %s: %v\n", verb, name, err)
}

func (f *fsFeature) pathError(c *Console, cmd, path string, err error) {
	switch {
	case errors.Is(err, flashfs.ErrNotMounted):
		c.Printf("filesystem not mounted\n")
	case errors.Is(err, flashfs.ErrNotFound):
		c.Printf("%s: %s: No such file or directory\n", cmd, path)
	default:
		c.Printf("%s: %v\n", cmd, err)
	}
}
