package cli

import (
	"github.com/spf13/cobra"

	"sleepvoice-server-go/internal/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return bootstrap.Run(cmd.Context(), bootstrap.Options{ConfigPath: configPath})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
