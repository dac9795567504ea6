package logging

import (
	"fmt"
	"io"
	"time"
)

// Pipeline renders and routes console log messages.
//
// One pipeline exists per console session. All pipelines of an agent may
// share a RemoteSink (its online state is a property of the server, not
// of the session), but a pipeline created with SuppressRemote never
// forwards, regardless of thresholds.
type Pipeline struct {
	out         io.Writer
	remote      *RemoteSink
	localLevel  Severity
	remoteLevel Severity

	suppressRemote bool

	started time.Time
	synced  bool
	now     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// SuppressRemote disables remote forwarding for this pipeline. Used by
// TCP consoles, which sit on the same transport as the log server.
func SuppressRemote() Option {
	return func(p *Pipeline) { p.suppressRemote = true }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a pipeline writing to out. remote may be nil when
// no log server is configured. Defaults: local INFO, remote ERROR.
func NewPipeline(out io.Writer, remote *RemoteSink, opts ...Option) *Pipeline {
	p := &Pipeline{
		out:         out,
		remote:      remote,
		localLevel:  SeverityInfo,
		remoteLevel: SeverityError,
		now:         time.Now,
	}
	p.started = p.now()
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetLocalLevel sets the user-visible threshold.
func (p *Pipeline) SetLocalLevel(s Severity) { p.localLevel = s }

// LocalLevel returns the user-visible threshold.
func (p *Pipeline) LocalLevel() Severity { return p.localLevel }

// SetRemoteLevel sets the remote-forwarding threshold.
func (p *Pipeline) SetRemoteLevel(s Severity) { p.remoteLevel = s }

// RemoteLevel returns the remote-forwarding threshold.
func (p *Pipeline) RemoteLevel() Severity { return p.remoteLevel }

// SetTimeSynced switches the message prefix from uptime to wall time.
func (p *Pipeline) SetTimeSynced(synced bool) { p.synced = synced }

// Remote returns the attached sink (may be nil).
func (p *Pipeline) Remote() *RemoteSink { return p.remote }

// Error logs at ERROR severity. Arguments follow fmt.Sprintf.
func (p *Pipeline) Error(format string, args ...any) {
	p.emit(SeverityError, format, args...)
}

// Warn logs at WARN severity.
func (p *Pipeline) Warn(format string, args ...any) {
	p.emit(SeverityWarn, format, args...)
}

// Info logs at INFO severity.
func (p *Pipeline) Info(format string, args ...any) {
	p.emit(SeverityInfo, format, args...)
}

// Debug logs at DEBUG severity.
func (p *Pipeline) Debug(format string, args ...any) {
	p.emit(SeverityDebug, format, args...)
}

// DebugExt logs at the extended debug severity.
func (p *Pipeline) DebugExt(format string, args ...any) {
	p.emit(SeverityDebugExt, format, args...)
}

// emit renders once and routes to the local stream and the remote sink
// according to their thresholds.
func (p *Pipeline) emit(s Severity, format string, args ...any) {
	if s > p.localLevel && (p.suppressRemote || p.remote == nil || s > p.remoteLevel) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s %s %s", p.prefix(), s.String(), msg)

	if s <= p.localLevel && p.out != nil {
		fmt.Fprintln(p.out, s.style().Render(line))
	}

	if !p.suppressRemote && p.remote != nil && s <= p.remoteLevel {
		// Remote gets the plain rendering; escape codes are for humans.
		p.remote.Emit(line, p.localEcho)
	}
}

// localEcho lets the remote sink report its own state transitions
// through the local side of this pipeline without recursing remotely.
func (p *Pipeline) localEcho(s Severity, msg string) {
	if s > p.localLevel || p.out == nil {
		return
	}
	line := fmt.Sprintf("%s %s %s", p.prefix(), s.String(), msg)
	fmt.Fprintln(p.out, s.style().Render(line))
}

// prefix returns the wall time when synced, otherwise uptime rendered as
// HH:MM:SS.mmm.
func (p *Pipeline) prefix() string {
	if p.synced {
		return p.now().Format("15:04:05.000")
	}
	up := p.now().Sub(p.started)
	h := int(up.Hours())
	m := int(up.Minutes()) % 60
	sec := int(up.Seconds()) % 60
	ms := int(up.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, sec, ms)
}
