package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pgx-interpreter-mcp-server/internal/app"
	"github.com/pgx-interpreter-mcp-server/internal/seed"
)

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a reference dataset into the configured SQL store",
		Long: "Upserts genes, alleles, drugs, effects and guidelines and replaces each gene's " +
			"phenotype rules. Without --file the seed.file setting is used, then the embedded dataset.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			m, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if file == "" {
				file = m.GetConfig().Seed.File
			}

			ds, err := seed.Load(file)
			if err != nil {
				return err
			}

			seeder, release, err := app.OpenSeeder(ctx, m, logger)
			if err != nil {
				return err
			}
			defer release()

			if err := seeder.Seed(ctx, ds); err != nil {
				return fmt.Errorf("seeding reference store: %w", err)
			}
			logger.WithFields(logrus.Fields{
				"genes":      len(ds.Genes),
				"drugs":      len(ds.Drugs()),
				"guidelines": len(ds.Guidelines),
			}).Info("Reference dataset loaded")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Dataset YAML file")
	return cmd
}

func validateSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate-seed",
		Short: "Check a reference dataset file without loading it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := seed.Load(file)
			if err != nil {
				return err
			}
			if err := ds.Validate(); err != nil {
				cmd.PrintErrln(err)
				return fmt.Errorf("dataset %s is invalid", file)
			}
			cmd.Printf("Dataset valid: %d genes, %d drugs, %d guidelines\n", len(ds.Genes), len(ds.Drugs()), len(ds.Guidelines))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Dataset YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
