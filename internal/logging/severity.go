package logging

import "github.com/charmbracelet/lipgloss"

// Severity orders console log messages from most to least urgent.
// The numeric values double as threshold levels: a message is emitted
// when its severity is <= the configured threshold.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarn
	SeverityInfo
	SeverityDebug
	SeverityDebugExt
)

// String returns the fixed-width tag used in rendered messages.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarn:
		return "WARN "
	case SeverityInfo:
		return "INFO "
	case SeverityDebug:
		return "DEBUG"
	case SeverityDebugExt:
		return "DBGX "
	}
	return "?????"
}

// SeverityFromLevel clamps a numeric console level (0-4) to a Severity.
func SeverityFromLevel(level int) Severity {
	if level < 0 {
		level = 0
	}
	if level > int(SeverityDebugExt) {
		level = int(SeverityDebugExt)
	}
	return Severity(level)
}

// Per-severity render styles: dim for debug traffic, yellow warnings,
// bright red bold errors.
var severityStyles = map[Severity]lipgloss.Style{
	SeverityError:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	SeverityWarn:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	SeverityInfo:     lipgloss.NewStyle(),
	SeverityDebug:    lipgloss.NewStyle().Faint(true),
	SeverityDebugExt: lipgloss.NewStyle().Faint(true),
}

// style returns the lipgloss style for a severity.
func (s Severity) style() lipgloss.Style {
	if st, ok := severityStyles[s]; ok {
		return st
	}
	return lipgloss.NewStyle()
}
