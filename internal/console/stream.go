package console

import (
	"io"
	"net"
	"os"
	"time"

	"go.bug.st/serial"
)

// Stream is a bidirectional byte channel. Read must not block: it returns
// (0, nil) when no data is pending so the cooperative loop keeps turning.
type Stream interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Connected() bool
	Close() error
}

// serialStream adapts a go.bug.st/serial port. The short read timeout turns
// the port's blocking reads into polls.
type serialStream struct {
	port serial.Port
	open bool
}

// OpenSerial opens device at the given baud rate as a console stream.
func OpenSerial(device string, baud int) (Stream, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(5 * time.Millisecond); err != nil {
		port.Close()
		return nil, err
	}
	return &serialStream{port: port, open: true}, nil
}

func (s *serialStream) Read(p []byte) (int, error) {
	// A timed-out read reports n=0 with no error.
	return s.port.Read(p)
}

func (s *serialStream) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *serialStream) Connected() bool             { return s.open }

func (s *serialStream) Close() error {
	s.open = false
	return s.port.Close()
}

// ioStream adapts a blocking reader/writer pair (stdio on a bench) by
// pumping reads through a goroutine-fed channel.
type ioStream struct {
	w      io.Writer
	data   chan []byte
	rest   []byte
	closed bool
}

// NewIOStream returns a Stream over a blocking reader and writer. Used for
// the stdio console variant.
func NewIOStream(r io.Reader, w io.Writer) Stream {
	s := &ioStream{w: w, data: make(chan []byte, 16)}
	go func() {
		defer close(s.data)
		buf := make([]byte, 256)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				s.data <- chunk
			}
			if err != nil {
				return
			}
		}
	}()
	return s
}

// NewStdioStream returns a Stream over the process stdin/stdout.
func NewStdioStream() Stream {
	return NewIOStream(os.Stdin, os.Stdout)
}

func (s *ioStream) Read(p []byte) (int, error) {
	if len(s.rest) > 0 {
		n := copy(p, s.rest)
		s.rest = s.rest[n:]
		return n, nil
	}
	if s.closed {
		return 0, io.EOF
	}
	select {
	case chunk, ok := <-s.data:
		if !ok {
			s.closed = true
			return 0, io.EOF
		}
		n := copy(p, chunk)
		s.rest = chunk[n:]
		return n, nil
	default:
		return 0, nil
	}
}

func (s *ioStream) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s *ioStream) Connected() bool             { return !s.closed }
func (s *ioStream) Close() error                { s.closed = true; return nil }

// tcpStream adapts an accepted client connection. Short read deadlines make
// the reads polling.
type tcpStream struct {
	conn net.Conn
	open bool
}

// NewTCPStream wraps an accepted client connection as a console stream.
func NewTCPStream(conn net.Conn) Stream {
	return &tcpStream{conn: conn, open: true}
}

func (s *tcpStream) Read(p []byte) (int, error) {
	if !s.open {
		return 0, io.EOF
	}
	s.conn.SetReadDeadline(time.Now().Add(time.Millisecond))
	n, err := s.conn.Read(p)
	if err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return n, nil
		}
		s.open = false
		return n, err
	}
	return n, nil
}

func (s *tcpStream) Write(p []byte) (int, error) {
	if !s.open {
		return 0, io.EOF
	}
	// Transfers block on purpose; give writes room to drain.
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.Write(p)
}

func (s *tcpStream) Connected() bool { return s.open }

func (s *tcpStream) Close() error {
	s.open = false
	return s.conn.Close()
}
