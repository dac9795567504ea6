package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <remote-path> [local-file]",
	Short: "Download a file from the node's flash store",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	remote := args[0]
	local := path.Base(remote)
	if len(args) == 2 {
		local = args[1]
	}

	conn, err := dialConsole()
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "$DOWNLOAD$\nGET %s\n", remote); err != nil {
		return fmt.Errorf("sending request: %w", err)
	}

	header, err := readLine(conn, 5*time.Second)
	if err != nil {
		return fmt.Errorf("reading transfer header: %w", err)
	}
	if strings.HasPrefix(header, "ERROR:") {
		return fmt.Errorf("%s: %s", remote, strings.TrimSpace(strings.TrimPrefix(header, "ERROR:")))
	}
	sizeText, ok := strings.CutPrefix(header, "SIZE: ")
	if !ok {
		return fmt.Errorf("unexpected transfer header %q", header)
	}
	size, err := strconv.ParseInt(strings.TrimSpace(sizeText), 10, 64)
	if err != nil {
		return fmt.Errorf("bad size in transfer header %q", header)
	}

	out, err := os.Create(local)
	if err != nil {
		return err
	}
	defer out.Close()

	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	if _, err := io.CopyBuffer(out, io.LimitReader(conn, size), make([]byte, chunkSize)); err != nil {
		return fmt.Errorf("receiving payload: %w", err)
	}

	fmt.Printf("downloaded %s (%d bytes) to %s\n", remote, size, local)
	return nil
}
