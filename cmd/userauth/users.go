package main

import (
	"errors"
	"fmt"

	"userauth/internal/store"

	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer accounts",
	}
	cmd.AddCommand(newLockCmd("lock", "Lock an account so it can no longer authenticate", true))
	cmd.AddCommand(newLockCmd("unlock", "Lift the lock on an account", false))
	return cmd
}

func newLockCmd(use, short string, locked bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " EMAIL",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := bootstrap()

			gdb, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			users := store.New(gdb).Users()
			user, err := users.GetByEmail(cmd.Context(), args[0])
			if errors.Is(err, store.ErrRecordNotFound) {
				return fmt.Errorf("no account registered for %s", args[0])
			}
			if err != nil {
				return err
			}
			if err := users.SetLocked(cmd.Context(), user.ID, locked); err != nil {
				return err
			}
			logger.Info("account lock changed", "user_id", user.ID, "locked", locked)
			cmd.Printf("%s: locked=%v\n", user.Email, locked)
			return nil
		},
	}
}
