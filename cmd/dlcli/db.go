package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newDBCmd(configFile *string) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the database",
	}

	var addBasicAuthUsers bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the tables and the global flags",
		Args:  cobra.NoArgs,
		RunE: withEnv(
			configFile, func(e *env, _ []string) error {
				if err := e.ac.InitializeFlags(); err != nil {
					return err
				}
				if addBasicAuthUsers {
					if err := requireBasicAuth(e); err != nil {
						return err
					}
					created, err := e.ac.AddDefaultUsers()
					if err != nil {
						return err
					}
					for _, u := range created {
						_, _ = fmt.Fprintf(
							e.out, "Created user '%s' with its default password, change it as soon as possible!\n", u,
						)
					}
				}
				_, err := fmt.Fprintln(e.out, "Database initialized")
				return err
			},
		),
	}
	initCmd.Flags().BoolVar(
		&addBasicAuthUsers, "add-basic-auth-users", false, "create the default admin and guest users",
	)

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove all flags; users and credentials are kept",
		Args:  cobra.NoArgs,
		RunE: withEnv(
			configFile, func(e *env, _ []string) error {
				deleted, err := e.store.Clean()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(e.out, "Removed %d flags\n", deleted)
				return err
			},
		),
	}

	var yes bool
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Drop all tables",
		Args:  cobra.NoArgs,
		RunE: withEnv(
			configFile, func(e *env, _ []string) error {
				if !yes {
					return errors.New("refusing to drop all tables without --yes")
				}
				if err := e.store.Drop(); err != nil {
					return err
				}
				_, err := fmt.Fprintln(e.out, "Database deleted")
				return err
			},
		),
	}
	deleteCmd.Flags().BoolVar(&yes, "yes", false, "confirm dropping all tables")

	dbCmd.AddCommand(initCmd, cleanCmd, deleteCmd)
	return dbCmd
}
