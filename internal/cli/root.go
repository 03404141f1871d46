// Package cli is the sleepvoice command line: the server itself plus
// operator tools that run the voice stack in-process.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "sleepvoice",
	Short:         "Voice command server for bedside devices",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $SLEEPVOICE_CONFIG or config.yaml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
