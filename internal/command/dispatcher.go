package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Handler processes one trimmed command line. It returns true when the
// line was claimed (recognised, whether or not it succeeded). quiet
// suppresses informational output, for lines arriving from non-console
// sources such as the MQTT command topic.
type Handler func(line string, quiet bool) bool

// Group is a registered command set: a handler plus the metadata help is
// rendered from.
type Group struct {
	Name        string
	Description string
	Verbs       []string
	Handler     Handler
}

// Dispatcher holds command groups and routes lines to them in
// registration order.
//
// Registration happens once at startup from the console features; after
// that the dispatcher is read-only and safe to consult from the loop.
type Dispatcher struct {
	groups []*Group
	byName map[string]*Group
}

// descriptionStyle renders group descriptions in help output.
var descriptionStyle = lipgloss.NewStyle().Bold(true)

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{byName: make(map[string]*Group)}
}

// Register adds a command group.
//
// verbs is the comma-separated keyword list retained only for help
// display; matching stays with the handler. Registering a duplicate
// group name is a programming error and is rejected.
func (d *Dispatcher) Register(name string, handler Handler, verbs, description string) error {
	if name == "" || handler == nil {
		return fmt.Errorf("%w: name and handler are required", ErrBadGroup)
	}
	if _, exists := d.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateGroup, name)
	}

	var verbList []string
	for _, v := range strings.Split(verbs, ",") {
		if v = strings.TrimSpace(v); v != "" {
			verbList = append(verbList, v)
		}
	}

	g := &Group{
		Name:        name,
		Description: description,
		Verbs:       verbList,
		Handler:     handler,
	}
	d.groups = append(d.groups, g)
	d.byName[name] = g
	return nil
}

// Dispatch routes one command line.
//
// The line is trimmed first; an empty line is treated as claimed.
// Groups are consulted in registration order and the first handler
// returning true terminates dispatch.
func (d *Dispatcher) Dispatch(line string, quiet bool) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	for _, g := range d.groups {
		if g.Handler(line, quiet) {
			return true
		}
	}
	return false
}

// Groups returns the registered groups in registration order.
func (d *Dispatcher) Groups() []*Group {
	out := make([]*Group, len(d.groups))
	copy(out, d.groups)
	return out
}

// PrintHelp writes one entry per group: the bold description followed by
// the verb list. Content is derived purely from registration, so help
// never drifts from the actual command set.
func (d *Dispatcher) PrintHelp(w io.Writer) {
	for _, g := range d.groups {
		fmt.Fprintln(w, descriptionStyle.Render(g.Description))
		if len(g.Verbs) > 0 {
			fmt.Fprintf(w, "  %s\n", strings.Join(g.Verbs, ", "))
		}
	}
}
