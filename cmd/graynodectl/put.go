package main

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put <local-file> [remote-path]",
	Short: "Upload a file to the node's flash store",
	Long: `Upload a local file using the console transfer protocol.

The remote path defaults to "/<basename>" of the local file. The agent
rejects uploads larger than 90% of the flash store's free space.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPut,
}

func init() {
	rootCmd.AddCommand(putCmd)
}

func runPut(cmd *cobra.Command, args []string) error {
	local := args[0]
	remote := "/" + path.Base(local)
	if len(args) == 2 {
		remote = args[1]
	}

	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}

	conn, err := dialConsole()
	if err != nil {
		return err
	}
	defer conn.Close()

	// Announce the transfer, then send the framing header and payload.
	if _, err := fmt.Fprintf(conn, "$UPLOAD$\nFILE:%s SIZE:%d\n", remote, st.Size()); err != nil {
		return fmt.Errorf("sending header: %w", err)
	}
	if _, err := io.CopyBuffer(conn, f, make([]byte, chunkSize)); err != nil {
		return fmt.Errorf("sending payload: %w", err)
	}

	// Echo the agent's progress output and final verdict.
	if err := drainReply(conn, os.Stdout); err != nil {
		return err
	}
	fmt.Printf("\nuploaded %s (%d bytes) to %s\n", local, st.Size(), remote)
	return nil
}
