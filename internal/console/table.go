package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// headerStyle renders table headers.
var headerStyle = lipgloss.NewStyle().Bold(true).Faint(true)

// Table accumulates rows and prints them column-aligned. Used by the
// list verbs (ls -l, timer list, mqtt list, ha list, i2c list).
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a table with the given column headers. A table with
// no headers prints rows only.
func NewTable(headers ...string) *Table {
	t := &Table{headers: headers}
	for _, h := range headers {
		t.widths = append(t.widths, len(h))
	}
	return t
}

// Row appends one row. Missing cells render empty; extra cells grow the
// column set.
func (t *Table) Row(cells ...string) {
	for len(t.widths) < len(cells) {
		t.widths = append(t.widths, 0)
	}
	for i, c := range cells {
		if len(c) > t.widths[i] {
			t.widths[i] = len(c)
		}
	}
	t.rows = append(t.rows, cells)
}

// Print writes the table to w, two spaces between columns.
func (t *Table) Print(w io.Writer) {
	if len(t.headers) > 0 {
		fmt.Fprintln(w, headerStyle.Render(t.line(t.headers)))
	}
	for _, r := range t.rows {
		fmt.Fprintln(w, t.line(r))
	}
}

func (t *Table) line(cells []string) string {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i < len(cells)-1 {
			fmt.Fprintf(&b, "%-*s", t.widths[i], c)
		} else {
			b.WriteString(c)
		}
	}
	return strings.TrimRight(b.String(), " ")
}
