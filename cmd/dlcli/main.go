package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/data-lunch/dlunch/auth"
	"github.com/data-lunch/dlunch/cmd/dlunch/config"
	"github.com/data-lunch/dlunch/storage"
)

// env is what the commands operate on
type env struct {
	store *storage.Storage
	ac    *auth.AuthContext
	out   io.Writer
}

func (e *env) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// openEnv loads the config and opens the storage
var openEnv = func(configFile string, out io.Writer) (*env, error) {
	if err := config.Load(configFile); err != nil {
		return nil, err
	}
	c := config.Get()
	store, err := config.LoadStorage(c.Storage)
	if err != nil {
		return nil, err
	}
	var opts []auth.Option
	if client := c.Caching.RedisClient(); client != nil {
		opts = append(opts, auth.WithLocker(auth.NewRedisLocker(client)))
	}
	ac, err := auth.NewAuthContext(c.AuthConfig(), store.Backends(), opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &env{
		store: store,
		ac:    ac,
		out:   out,
	}, nil
}

// withEnv wraps a command function so it gets an opened env
func withEnv(configFile *string, run func(e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(*configFile, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer e.Close()
		return run(e, args)
	}
}

func requireBasicAuth(e *env) error {
	if !e.ac.IsBasicAuthActive() {
		return errors.New("basic authentication is not active, configure basic_auth")
	}
	return nil
}

func newRootCmd() *cobra.Command {
	var configFile string
	rootCmd := &cobra.Command{
		Use:           "dlcli",
		Short:         "dlcli can help you manage your Data Lunch instance",
		Long:          "dlcli can help you manage users, credentials and the database of your Data Lunch instance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "the config file to use")
	rootCmd.AddCommand(
		newUsersCmd(&configFile),
		newCredentialsCmd(&configFile),
		newDBCmd(&configFile),
		newSecretCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
