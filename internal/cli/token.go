package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sleepvoice-server-go/internal/domain/auth"
	platformconfig "sleepvoice-server-go/internal/platform/config"
)

var (
	tokenDevice  string
	tokenAccount string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a device bearer token signed with the configured secret",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenDevice, "device", "", "device id (required)")
	tokenCmd.Flags().StringVar(&tokenAccount, "account", "", "account id (required)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default 30 days)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	if tokenDevice == "" || tokenAccount == "" {
		return errors.New("--device and --account are required")
	}

	loader := platformconfig.NewLoader()
	if configPath != "" {
		loader = loader.WithPath(configPath)
	}
	result, err := loader.Load()
	if err != nil {
		return err
	}

	authority, err := auth.NewTokenAuthority(result.Config.Auth.Secret, result.Config.Auth.Issuer)
	if err != nil {
		return err
	}
	if tokenTTL > 0 {
		authority = authority.WithTTL(tokenTTL)
	}
	token, err := authority.Issue(auth.Identity{DeviceID: tokenDevice, AccountID: tokenAccount})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
