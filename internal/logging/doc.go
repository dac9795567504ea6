// Package logging implements the console severity pipeline: rendered,
// colour-coded emission to the console's local stream and best-effort
// forwarding to a remote TCP log server.
//
// Five severities exist, ascending ERROR, WARN, INFO, DEBUG, DEBUG_EXT,
// gated by two independent thresholds, one for the local stream and one for
// the remote sink. Messages are prefixed with the wall-clock time when
// the clock is synced, otherwise with uptime as HH:MM:SS.mmm.
//
// The remote sink opens one TCP connection per message (write, close).
// When the server stops answering the sink goes offline: sends are
// skipped and reachability is re-probed every 60 seconds, with the
// offline/online transitions themselves logged locally. Pipelines bound
// to TCP consoles suppress remote emission entirely, since the remote
// sink is on the same transport and would loop.
package logging
