package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/data-lunch/dlunch/auth"
	"github.com/data-lunch/dlunch/storage/model"
)

func newUsersCmd(configFile *string) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage privileged users",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all users with their group",
		Args:  cobra.NoArgs,
		RunE: withEnv(
			configFile, func(e *env, _ []string) error {
				users, err := e.ac.ListUsersGuestsAndPrivileges()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "USER\tGROUP")
				for _, u := range users {
					_, _ = fmt.Fprintf(w, "%s\t%s\n", u.User, u.Group)
				}
				return w.Flush()
			},
		),
	}

	var admin bool
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a privileged user or change its admin flag",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(
			configFile, func(e *env, args []string) error {
				if err := auth.NewAuthUser(e.ac, args[0]).AddPrivilegedUser(admin); err != nil {
					return err
				}
				_, err := fmt.Fprintf(e.out, "User '%s' added (admin: %t)\n", args[0], admin)
				return err
			},
		),
	}
	addCmd.Flags().BoolVar(&admin, "admin", false, "grant admin rights")

	removeCmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a user from the privileged users and its credentials",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(
			configFile, func(e *env, args []string) error {
				removed, err := auth.NewAuthUser(e.ac, args[0]).RemoveUser()
				if err != nil {
					return err
				}
				if removed == (auth.RemovedRows{}) {
					return model.NotFoundErrorFmt("user '%s' does not exist", args[0])
				}
				_, err = fmt.Fprintf(
					e.out, "User '%s' removed (privileged users: %d, credentials: %d)\n", args[0],
					removed.PrivilegedDeleted, removed.CredentialsDeleted,
				)
				return err
			},
		),
	}

	usersCmd.AddCommand(listCmd, addCmd, removeCmd)
	return usersCmd
}
