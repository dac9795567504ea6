package main

import (
	"fmt"
	"io"
	"net"
	"time"
)

const chunkSize = 512

// dialConsole connects to the agent console.
func dialConsole() (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return conn, nil
}

// drainReply copies console output to w until the agent goes quiet for
// the reply window. The console has no end-of-response marker, so
// silence is the terminator.
func drainReply(conn net.Conn, w io.Writer) error {
	buf := make([]byte, 4096)
	for {
		conn.SetReadDeadline(time.Now().Add(replyWindow))
		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil
			}
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// readLine reads one LF-terminated line, byte at a time. Transfer
// headers are short, so the unbuffered reads keep the payload that
// follows out of client-side buffers.
func readLine(conn net.Conn, timeout time.Duration) (string, error) {
	conn.SetReadDeadline(time.Now().Add(timeout))
	var line []byte
	buf := make([]byte, 1)
	for {
		if _, err := conn.Read(buf); err != nil {
			return "", err
		}
		if buf[0] == '\n' {
			return string(line), nil
		}
		line = append(line, buf[0])
	}
}
