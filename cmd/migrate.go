package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/expense-client/internal/session/sqlite"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "Apply the session store migrations",
	}
	migrateRollback bool
	migrateStatus   bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration")
	migrateCmd.Flags().BoolVarP(&migrateStatus, "status", "s", false, "print the current schema version and exit")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := setup()
	if err != nil {
		return err
	}

	db, err := sqlite.Open(cfg.Session.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer closeDB(db)

	switch {
	case migrateStatus:
	case migrateRollback:
		if err := sqlite.Rollback(ctx, db); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
	default:
		if err := sqlite.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	}

	version, err := sqlite.Version(ctx, db)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", cfg.Session.Path, version)
	return nil
}
