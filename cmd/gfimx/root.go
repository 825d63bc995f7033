package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gfimx/policyd/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gfimx",
	Short: "gfimx - file-monitoring policy distribution",
	Long: `gfimx validates the per-client policies of a file-monitoring fleet and
publishes the accepted ones to Redis.

A policy is rejected when its ignore patterns are malformed or do not
compile; a rejected policy is never published, so clients keep the last
good version.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code the command
// reported.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !cli.Silent(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "gfimx.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &cli.ExitError{Code: cli.ExitUsage, Err: err}
	})
}
