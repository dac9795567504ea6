package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <command>...",
	Short: "Run one console command and print its output",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	conn, err := dialConsole()
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "%s\n", strings.Join(args, " ")); err != nil {
		return fmt.Errorf("sending command: %w", err)
	}
	return drainReply(conn, os.Stdout)
}
