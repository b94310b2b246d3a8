package main

import (
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/minishop/internal/config"
	"github.com/Skotchmaster/minishop/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and the seed account, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, gdb, err := bootstrap(cmd.Context(), config.Config.ValidateStore)
			if err != nil {
				return err
			}
			logger.Info("migrate_done")
			return db.Close(gdb)
		},
	}
}
