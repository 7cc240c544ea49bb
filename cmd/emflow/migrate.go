package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/avi3tal/emflow/internal/config"
	"github.com/avi3tal/emflow/internal/store"
	"github.com/avi3tal/emflow/internal/timesheet"
	"github.com/avi3tal/emflow/pkg/checkpoints"
)

var migrateSeed string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the em_data schema and optionally seed it",
	Long:  "Create the em_data table and indexes (and the checkpoint table for the postgres checkpoint backend). --seed loads a YAML or JSON list of em_data rows.",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateSeed, "seed", "", "Path to a YAML or JSON file of em_data rows")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	repo, err := openStore(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	slog.Info("schema ready", "driver", cfg.DB.Driver)

	if pg, ok := repo.(*store.PostgresStore); ok && cfg.Checkpoint.Backend == "postgres" {
		if err := checkpoints.NewPostgresStore[timesheet.WorkflowState](pg.Pool()).EnsureSchema(ctx); err != nil {
			return err
		}
		slog.Info("checkpoint schema ready")
	}

	if migrateSeed == "" {
		return nil
	}
	f, err := os.Open(migrateSeed)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	records, err := store.LoadRecords(f)
	if err != nil {
		return err
	}
	n, err := repo.InsertRecords(ctx, records)
	if err != nil {
		return err
	}
	slog.Info("seeded em_data", "count", n, "file", migrateSeed)
	return nil
}
