package main

import (
	"userauth/internal/domain"
	"userauth/internal/service/impl"
	"userauth/internal/store"

	"github.com/spf13/cobra"
)

func newRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage account roles",
	}

	var extra []string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the baseline roles if they are missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := bootstrap()

			gdb, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			names := append([]string{domain.RoleUser}, extra...)
			if err := impl.EnsureRoles(cmd.Context(), store.New(gdb).Roles(), logger, names...); err != nil {
				return err
			}
			cmd.Printf("roles present: %v\n", names)
			return nil
		},
	}
	initCmd.Flags().StringSliceVar(&extra, "role", nil, "additional role to create (repeatable)")

	cmd.AddCommand(initCmd)
	return cmd
}
