package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/data-lunch/dlunch/auth"
	"github.com/data-lunch/dlunch/storage/model"
)

func newCredentialsCmd(configFile *string) *cobra.Command {
	credentialsCmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage basic auth credentials",
	}

	var admin, guest bool
	addCmd := &cobra.Command{
		Use:   "add <name> <password>",
		Short: "Set the password of a user, creating the user if needed",
		Long: "Set the password of a user, creating the user if needed.\n" +
			"Unless --guest is set, the user is also added to the privileged users.",
		Args: cobra.ExactArgs(2),
		RunE: withEnv(
			configFile, func(e *env, args []string) error {
				if err := requireBasicAuth(e); err != nil {
					return err
				}
				if admin && guest {
					return errors.New("a user cannot be both admin and guest")
				}
				user := auth.NewAuthUser(e.ac, args[0])
				if !guest {
					if err := user.AddPrivilegedUser(admin); err != nil {
						return err
					}
				}
				if err := user.AddUserHashedPassword(args[1]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(e.out, "Credentials for '%s' stored\n", args[0])
				return err
			},
		),
	}
	addCmd.Flags().BoolVar(&admin, "admin", false, "grant admin rights")
	addCmd.Flags().BoolVar(&guest, "guest", false, "do not add the user to the privileged users")

	removeCmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove the password of a user",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(
			configFile, func(e *env, args []string) error {
				if err := requireBasicAuth(e); err != nil {
					return err
				}
				deleted, err := auth.NewAuthUser(e.ac, args[0]).RemoveCredentials()
				if err != nil {
					return err
				}
				if deleted == 0 {
					return model.NotFoundErrorFmt("user '%s' has no credentials", args[0])
				}
				_, err = fmt.Fprintf(e.out, "Credentials for '%s' removed\n", args[0])
				return err
			},
		),
	}

	credentialsCmd.AddCommand(addCmd, removeCmd)
	return credentialsCmd
}
