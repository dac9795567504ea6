// graynodectl is the host-side companion of the graynode agent: an
// interactive shell, one-shot command runner and file-transfer client
// for the agent's TCP console.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Connection flags shared by every subcommand.
	addr        string
	replyWindow time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "graynodectl",
	Short: "Gray Node Agent console client",
	Long: `graynodectl talks to a running graynode agent over its TCP console.

It can open an interactive shell, run a single command, and move files
into and out of the node's flash store using the console's transfer
protocol.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&addr, "addr", "a", "127.0.0.1:2323", "agent console address (host:port)")
	rootCmd.PersistentFlags().DurationVar(&replyWindow, "reply-window", 500*time.Millisecond, "how long to wait for command output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
