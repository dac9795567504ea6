package logging

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"
)

// fakeConn collects written bytes into a shared buffer.
type fakeConn struct {
	buf *bytes.Buffer
}

func (c fakeConn) Read([]byte) (int, error)         { return 0, nil }
func (c fakeConn) Write(p []byte) (int, error)      { return c.buf.Write(p) }
func (c fakeConn) Close() error                     { return nil }
func (c fakeConn) LocalAddr() net.Addr              { return nil }
func (c fakeConn) RemoteAddr() net.Addr             { return nil }
func (c fakeConn) SetDeadline(time.Time) error      { return nil }
func (c fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c fakeConn) SetWriteDeadline(time.Time) error { return nil }

// testSink returns a sink whose dials either succeed into buf or fail,
// controlled through the returned *bool.
func testSink(buf *bytes.Buffer, now func() time.Time) (*RemoteSink, *bool) {
	reachable := true
	s := NewRemoteSink("logs.local", 4567)
	s.now = now
	s.dial = func(string, time.Duration) (net.Conn, error) {
		if !reachable {
			return nil, net.ErrClosed
		}
		return fakeConn{buf: buf}, nil
	}
	return s, &reachable
}

func TestPipeline_LevelGating(t *testing.T) {
	var local, remote bytes.Buffer
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	sink, _ := testSink(&remote, func() time.Time { return now })

	p := NewPipeline(&local, sink, WithClock(func() time.Time { return now }))
	p.SetLocalLevel(SeverityInfo)
	p.SetRemoteLevel(SeverityError)

	// warn: local only.
	p.Warn("x")
	if !strings.Contains(local.String(), "x") {
		t.Error("warn did not reach local stream")
	}
	if remote.Len() != 0 {
		t.Errorf("warn produced remote bytes: %q", remote.String())
	}

	// error: both.
	local.Reset()
	p.Error("y")
	if !strings.Contains(local.String(), "y") {
		t.Error("error did not reach local stream")
	}
	if !strings.Contains(remote.String(), "y") {
		t.Error("error did not reach remote sink")
	}

	// debug: filtered everywhere at INFO threshold.
	local.Reset()
	remote.Reset()
	p.Debug("z")
	if local.Len() != 0 || remote.Len() != 0 {
		t.Error("debug leaked past INFO threshold")
	}
}

func TestPipeline_UptimePrefix(t *testing.T) {
	var local bytes.Buffer
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	now := base
	p := NewPipeline(&local, nil, WithClock(func() time.Time { return now }))

	now = base.Add(time.Hour + 2*time.Minute + 3*time.Second + 45*time.Millisecond)
	p.Info("up")

	if !strings.Contains(local.String(), "01:02:03.045") {
		t.Errorf("uptime prefix missing: %q", local.String())
	}
}

func TestPipeline_SyncedPrefix(t *testing.T) {
	var local bytes.Buffer
	now := time.Date(2026, 3, 1, 14, 30, 15, int(250*time.Millisecond), time.UTC)
	p := NewPipeline(&local, nil, WithClock(func() time.Time { return now }))
	p.SetTimeSynced(true)

	p.Info("synced")

	if !strings.Contains(local.String(), "14:30:15.250") {
		t.Errorf("wall-time prefix missing: %q", local.String())
	}
}

func TestPipeline_SuppressRemote(t *testing.T) {
	var local, remote bytes.Buffer
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	sink, _ := testSink(&remote, func() time.Time { return now })

	p := NewPipeline(&local, sink, SuppressRemote(), WithClock(func() time.Time { return now }))
	p.Error("boom")

	if remote.Len() != 0 {
		t.Errorf("suppressed pipeline produced remote bytes: %q", remote.String())
	}
	if !strings.Contains(local.String(), "boom") {
		t.Error("suppressed pipeline lost local output")
	}
}

func TestRemoteSink_OfflineProbeCadence(t *testing.T) {
	var remote bytes.Buffer
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	sink, reachable := testSink(&remote, func() time.Time { return now })

	var transitions []string
	echo := func(s Severity, msg string) {
		transitions = append(transitions, s.String()+" "+msg)
	}

	// First emit fails: sink goes offline and reports it.
	*reachable = false
	sink.Emit("one", echo)
	if sink.Online() {
		t.Fatal("sink still online after dial failure")
	}
	if len(transitions) != 1 || !strings.Contains(transitions[0], "unreachable") {
		t.Fatalf("transitions = %v, want one unreachable warning", transitions)
	}

	// Within the probe window nothing is attempted even if back up.
	*reachable = true
	now = now.Add(30 * time.Second)
	sink.Emit("two", echo)
	if remote.Len() != 0 {
		t.Error("emit within probe window produced bytes")
	}

	// After the window a probe succeeds, recovery is logged, line sent.
	now = now.Add(31 * time.Second)
	sink.Emit("three", echo)
	if !sink.Online() {
		t.Error("sink offline after successful probe")
	}
	if !strings.Contains(remote.String(), "three") {
		t.Errorf("remote did not receive message after recovery: %q", remote.String())
	}
	if len(transitions) != 2 || !strings.Contains(transitions[1], "back online") {
		t.Errorf("transitions = %v, want recovery info", transitions)
	}
}

func TestRemoteSink_Unconfigured(t *testing.T) {
	s := NewRemoteSink("", 0)
	// Must be a silent no-op.
	s.Emit("dropped", func(Severity, string) {
		t.Error("unconfigured sink echoed a transition")
	})
}

func TestSeverityFromLevel(t *testing.T) {
	tests := []struct {
		level int
		want  Severity
	}{
		{-1, SeverityError},
		{0, SeverityError},
		{2, SeverityInfo},
		{4, SeverityDebugExt},
		{9, SeverityDebugExt},
	}
	for _, tt := range tests {
		if got := SeverityFromLevel(tt.level); got != tt.want {
			t.Errorf("SeverityFromLevel(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
