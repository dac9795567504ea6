package transfer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/gray-node-agent/internal/flashfs"
)

const (
	// ChunkSize is the read/write granularity in both directions.
	ChunkSize = 512

	// InactivityTimeout aborts a transfer after this long without bytes.
	InactivityTimeout = 5000 * time.Millisecond

	// freeFraction caps an upload at this share of the remaining quota.
	freeFraction = 0.9

	pollDelay = 2 * time.Millisecond

	barWidth = 24
)

// Stream is the byte channel a transfer runs over. Read may return (0, nil)
// when no data is pending; the endpoint polls against the inactivity
// timeout.
type Stream interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Logger receives transfer outcomes. Satisfied by *logging.Pipeline.
type Logger interface {
	Info(format string, args ...any)
	Error(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Option configures an Endpoint.
type Option func(*Endpoint)

// WithLogger routes outcome messages to log.
func WithLogger(log Logger) Option {
	return func(e *Endpoint) { e.log = log }
}

// WithProgress draws the upload progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(e *Endpoint) { e.progress = w }
}

// WithClock injects the time source and sleeper used for the inactivity
// timeout, for tests.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(e *Endpoint) {
		e.now = now
		e.sleep = sleep
	}
}

// Endpoint is the device side of the transfer sub-protocol.
type Endpoint struct {
	fs       *flashfs.Store
	log      Logger
	progress io.Writer
	now      func() time.Time
	sleep    func(time.Duration)
}

// NewEndpoint returns an Endpoint storing files on fs.
func NewEndpoint(fs *flashfs.Store, opts ...Option) *Endpoint {
	e := &Endpoint{
		fs:    fs,
		log:   noopLogger{},
		now:   time.Now,
		sleep: time.Sleep,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ParseHeader decodes an upload header of the form
// "FILE:<path> SIZE:<decimal>".
func ParseHeader(line string) (path string, size int64, err error) {
	line = strings.TrimSpace(line)
	body, ok := strings.CutPrefix(line, "FILE:")
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrBadHeader, line)
	}
	i := strings.LastIndex(body, " SIZE:")
	if i < 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrBadHeader, line)
	}
	path = strings.TrimSpace(body[:i])
	size, perr := strconv.ParseInt(strings.TrimSpace(body[i+len(" SIZE:"):]), 10, 64)
	if perr != nil || size < 0 || path == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrBadHeader, line)
	}
	return path, size, nil
}

// Receive reads size payload bytes from stream into path. The header line
// has already been consumed by the console.
//
// The partial file is kept on timeout or early stream end so a retry can
// be inspected.
func (e *Endpoint) Receive(stream Stream, path string, size int64) error {
	if free, err := e.fs.Free(); err != nil {
		return err
	} else if free >= 0 && float64(size) > freeFraction*float64(free) {
		e.log.Error("upload %s rejected: %d bytes exceeds free space", path, size)
		return fmt.Errorf("%s: %w", path, ErrTooLarge)
	}

	w, err := e.fs.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()

	var (
		received int64
		buf      [ChunkSize]byte
		last     = e.now()
	)
	e.drawBar(path, received, size)
	for received < size {
		want := size - received
		if want > ChunkSize {
			want = ChunkSize
		}
		n, rerr := stream.Read(buf[:want])
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				e.log.Error("upload %s: %v", path, werr)
				return werr
			}
			received += int64(n)
			last = e.now()
			e.drawBar(path, received, size)
		}
		if rerr != nil && received < size {
			if errors.Is(rerr, io.EOF) {
				e.log.Error("upload %s ended after %d of %d bytes", path, received, size)
				return fmt.Errorf("%s: %w: %d of %d bytes", path, ErrShort, received, size)
			}
			e.log.Error("upload %s failed after %d of %d bytes: %v", path, received, size, rerr)
			return rerr
		}
		if n == 0 {
			if e.now().Sub(last) >= InactivityTimeout {
				e.log.Error("upload %s timed out after %d of %d bytes", path, received, size)
				return fmt.Errorf("%s: %w: %d of %d bytes", path, ErrTimeout, received, size)
			}
			e.sleep(pollDelay)
		}
	}
	e.endBar()
	e.log.Info("file transfer finished")
	return nil
}

// Send answers a download request for path on stream.
func (e *Endpoint) Send(stream Stream, path string) error {
	st, err := e.fs.Stat(path)
	if err != nil {
		fmt.Fprint(stream, "ERROR: File not found\n")
		return err
	}
	r, err := e.fs.Open(path)
	if err != nil {
		fmt.Fprint(stream, "ERROR: File not found\n")
		return err
	}
	defer r.Close()

	if _, err := fmt.Fprintf(stream, "SIZE: %d\n", st.Size); err != nil {
		return err
	}
	var buf [ChunkSize]byte
	if _, err := io.CopyBuffer(stream, r, buf[:]); err != nil {
		e.log.Error("download %s: %v", path, err)
		return err
	}
	e.log.Info("file transfer finished")
	return nil
}

func (e *Endpoint) drawBar(path string, received, total int64) {
	if e.progress == nil {
		return
	}
	filled := barWidth
	pct := 100
	if total > 0 {
		filled = int(received * barWidth / total)
		pct = int(received * 100 / total)
	}
	fmt.Fprintf(e.progress, "\r[%-*s] %3d%% %s", barWidth, strings.Repeat("#", filled), pct, path)
}

func (e *Endpoint) endBar() {
	if e.progress != nil {
		fmt.Fprintln(e.progress)
	}
}
