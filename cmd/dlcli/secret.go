package main

import (
	"fmt"

	"github.com/fernet/fernet-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/data-lunch/dlunch/cmd/dlunch/config"
)

func newSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Generate a new encryption key",
		Long: fmt.Sprintf(
			"Generate a new key for auth.oauth_encryption_key or the %s environment variable",
			config.EnvOAuthEncryptionKey,
		),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var key fernet.Key
			if err := key.Generate(); err != nil {
				return errors.Wrap(err, "failed to generate key")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), key.Encode())
			return err
		},
	}
}
