package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/minishop/internal/config"
	"github.com/Skotchmaster/minishop/internal/db"
	"github.com/Skotchmaster/minishop/internal/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shop",
		Short: "shop is a small storefront API with sessions, a catalog and carts",
		Long: `shop serves the storefront HTTP API.

Configuration is read from the environment, optionally from a .env file in
the working directory. Run "shop serve" to start the server or
"shop migrate" to prepare the database and exit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Bare "shop" behaves like "shop serve".
	serve := newServeCmd()
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newMigrateCmd())
	return root
}

// bootstrap loads and checks config, installs the default logger and opens
// a migrated and seeded database. check runs before the database is touched.
func bootstrap(ctx context.Context, check func(config.Config) error) (config.Config, *slog.Logger, *gorm.DB, error) {
	cfg := config.Load()
	if err := check(cfg); err != nil {
		return cfg, nil, nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	gdb, err := db.Open(openCtx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return cfg, logger, nil, err
	}
	if err := db.Migrate(openCtx, gdb); err != nil {
		_ = db.Close(gdb)
		return cfg, logger, nil, err
	}
	if _, err := db.Seed(openCtx, gdb, cfg.SeedUsername, cfg.SeedPassword); err != nil {
		_ = db.Close(gdb)
		return cfg, logger, nil, err
	}
	return cfg, logger, gdb, nil
}
