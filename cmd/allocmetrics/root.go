package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/allocmetrics/pkg/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "allocmetrics",
	Short: "Dynamic metrics for a multi-tenant resource allocator",
	Long: `allocmetrics tracks the metrics of a multi-tenant resource allocator whose
set of metrics changes at runtime: roles, frameworks and quotas come and go,
and every metric they own is registered and unregistered exactly once.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults are used when empty)")
}

// loadConfig loads the file named by --config, or the defaults.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}
