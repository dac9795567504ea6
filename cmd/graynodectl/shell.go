package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive console session",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	conn, err := dialConsole()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("connected to %s (exit with Ctrl-D)\n", addr)

	// Console output streams to stdout until the connection drops.
	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 4096)
		for {
			conn.SetReadDeadline(time.Time{})
			n, err := conn.Read(buf)
			if n > 0 {
				os.Stdout.Write(buf[:n])
			}
			if err != nil {
				done <- err
				return
			}
		}
	}()

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		if _, err := fmt.Fprintf(conn, "%s\n", in.Text()); err != nil {
			return fmt.Errorf("sending command: %w", err)
		}
		select {
		case err := <-done:
			return shellExit(err)
		default:
		}
	}
	if err := in.Err(); err != nil {
		return err
	}
	return nil
}

func shellExit(err error) error {
	if err == io.EOF {
		fmt.Println("connection closed")
		return nil
	}
	if ne, ok := err.(net.Error); ok && !ne.Timeout() {
		return fmt.Errorf("connection lost: %w", err)
	}
	return err
}
