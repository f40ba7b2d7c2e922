package main

import (
	"fmt"

	"userauth/internal/store"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending schema migrations to the PostgreSQL database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := bootstrap()

			gdb, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := store.Migrate(cmd.Context(), gdb); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied")
			cmd.Println("migrations applied")
			return nil
		},
	}
}
