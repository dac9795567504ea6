package logging

import (
	"fmt"
	"net"
	"time"
)

const (
	// probeInterval is how often an offline server is re-probed.
	probeInterval = 60 * time.Second

	// dialTimeout bounds each connection attempt.
	dialTimeout = 2 * time.Second
)

// RemoteSink forwards rendered log lines to a TCP log server, one
// connection per message.
//
// The sink tracks server availability: while offline it drops messages
// and probes reachability on a 60 second cadence. State transitions are
// reported back through the emitting pipeline's local stream.
type RemoteSink struct {
	host string
	port int

	online    bool
	lastProbe time.Time

	dial func(addr string, timeout time.Duration) (net.Conn, error)
	now  func() time.Time
}

// NewRemoteSink creates a sink for the given server. An empty host
// leaves the sink unconfigured; Emit is then a no-op.
func NewRemoteSink(host string, port int) *RemoteSink {
	return &RemoteSink{
		host:   host,
		port:   port,
		online: true, // assume reachable until the first failure
		dial: func(addr string, timeout time.Duration) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, timeout)
		},
		now: time.Now,
	}
}

// SetServer reconfigures the target and resets availability state.
func (r *RemoteSink) SetServer(host string, port int) {
	r.host = host
	r.port = port
	r.online = true
	r.lastProbe = time.Time{}
}

// Server returns the configured host and port.
func (r *RemoteSink) Server() (string, int) {
	return r.host, r.port
}

// Online reports the last known availability.
func (r *RemoteSink) Online() bool { return r.online }

// Emit forwards one rendered line. echo receives availability-transition
// messages for local display and may be nil.
func (r *RemoteSink) Emit(line string, echo func(Severity, string)) {
	if r.host == "" || r.port == 0 {
		return
	}

	if !r.online {
		if r.now().Sub(r.lastProbe) < probeInterval {
			return
		}
		r.lastProbe = r.now()
		if !r.probe() {
			return
		}
		r.online = true
		if echo != nil {
			echo(SeverityInfo, fmt.Sprintf("log server %s:%d back online", r.host, r.port))
		}
	}

	conn, err := r.dial(r.addr(), dialTimeout)
	if err != nil {
		r.online = false
		r.lastProbe = r.now()
		if echo != nil {
			echo(SeverityWarn, fmt.Sprintf("log server %s:%d unreachable", r.host, r.port))
		}
		return
	}
	defer conn.Close()

	fmt.Fprintln(conn, line)
}

// probe tests plain TCP reachability without sending a message.
func (r *RemoteSink) probe() bool {
	conn, err := r.dial(r.addr(), dialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (r *RemoteSink) addr() string {
	return net.JoinHostPort(r.host, fmt.Sprint(r.port))
}
