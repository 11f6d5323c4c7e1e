package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scylladb/vector-store/internal/info"
)

var cfgFile string

// rootCmd is the base command; everything this service does runs through
// one of its subcommands.
var rootCmd = &cobra.Command{
	Use:     "vector-store",
	Short:   "ANN search sidecar for ScyllaDB vector indexes",
	Version: info.Version(),
}

// Execute runs the CLI, exiting with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: ./config.yaml, ~/.vector-store/config.yaml, /etc/vector-store/config.yaml)")
}
