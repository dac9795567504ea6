package console

import (
	"fmt"
	"net"
	"time"
)

// Factory builds a console for one accepted client connection. The
// returned console owns the stream and typically suppresses remote log
// emission.
type Factory func(name string, stream Stream) (*Console, error)

// Logger is the minimal logging surface the server reports through.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Server accepts TCP console clients and drives their loops.
//
// Accept is polled without blocking from the agent loop, so the server
// needs no goroutine of its own.
type Server struct {
	ln      *net.TCPListener
	factory Factory
	log     Logger
	clients []*Console
}

// Listen starts a console server on addr (host:port).
func Listen(addr string, factory Factory, log Logger) (*Server, error) {
	if log == nil {
		log = noopLogger{}
	}
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("console server: %w", err)
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("console server: %w", err)
	}
	return &Server{ln: ln, factory: factory, log: log}, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Clients returns the number of live client consoles.
func (s *Server) Clients() int { return len(s.clients) }

// Poll accepts any pending client and runs one loop iteration for every
// live console, dropping the ones whose stream has closed.
func (s *Server) Poll(now time.Time) {
	s.accept()

	live := s.clients[:0]
	for _, c := range s.clients {
		if !c.Connected() {
			s.log.Info("console client closed", "name", c.Name())
			c.Close()
			continue
		}
		c.Loop(now)
		live = append(live, c)
	}
	s.clients = live
}

// Close drops all clients and stops listening.
func (s *Server) Close() error {
	for _, c := range s.clients {
		c.Close()
	}
	s.clients = nil
	return s.ln.Close()
}

// accept takes at most one pending connection per poll. The short
// deadline keeps Accept from stalling the loop when nothing is pending.
func (s *Server) accept() {
	s.ln.SetDeadline(time.Now().Add(time.Millisecond))
	conn, err := s.ln.Accept()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return
		}
		s.log.Error("console accept failed", "error", err)
		return
	}

	name := "tcp:" + conn.RemoteAddr().String()
	c, err := s.factory(name, NewTCPStream(conn))
	if err != nil {
		s.log.Error("console client setup failed", "name", name, "error", err)
		conn.Close()
		return
	}
	s.log.Info("console client connected", "name", name)
	s.clients = append(s.clients, c)
}
