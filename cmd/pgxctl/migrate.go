package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgx-interpreter-mcp-server/internal/database"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres reference schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationRunner(func(ctx context.Context, r *database.MigrationRunner) error {
				return r.Up(ctx)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationRunner(func(ctx context.Context, r *database.MigrationRunner) error {
				return r.Down(ctx)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationRunner(func(ctx context.Context, r *database.MigrationRunner) error {
				version, dirty, err := r.Version()
				if err != nil {
					return err
				}
				if dirty {
					cmd.Printf("%d (dirty)\n", version)
					return nil
				}
				cmd.Println(version)
				return nil
			})
		},
	})
	return cmd
}

func withMigrationRunner(fn func(ctx context.Context, r *database.MigrationRunner) error) error {
	m, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requirePostgres(m); err != nil {
		return err
	}

	runner, err := database.NewMigrationRunner(m.GetDatabaseURL(), logger)
	if err != nil {
		return fmt.Errorf("opening migration runner: %w", err)
	}
	defer runner.Close()

	return fn(context.Background(), runner)
}
