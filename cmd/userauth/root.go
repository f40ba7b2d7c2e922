package main

import (
	"log/slog"

	"userauth/internal/config"
	"userauth/internal/observability/logging"
	"userauth/pkg/db"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const serviceName = "userauth"

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "User registration and authentication service",
		Long: `userauth registers accounts, emails activation codes and issues
signed access tokens for activated accounts.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newRolesCmd())
	cmd.AddCommand(newUsersCmd())
	return cmd
}

// bootstrap loads configuration and installs the process logger.
func bootstrap() (config.Config, *slog.Logger) {
	cfg := config.Load()
	logger := logging.NewLogger(logging.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	return cfg, logger
}

func openDB(cfg config.Config) (*gorm.DB, func(), error) {
	gdb, err := db.OpenGorm(db.Config{
		DSN:          cfg.DatabaseURL,
		LogSQL:       cfg.LogSQL,
		MaxOpenConns: 20,
		MaxIdleConns: 5,
	})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return gdb, closeFn, nil
}
