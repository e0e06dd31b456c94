package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgx-interpreter-mcp-server/internal/app"
	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

func interpretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interpret",
		Short: "Run the interpretation pipeline against the configured store and print JSON",
	}
	cmd.AddCommand(interpretGenotypeCmd())
	cmd.AddCommand(interpretFullCmd())
	return cmd
}

func interpretGenotypeCmd() *cobra.Command {
	var diplotype string
	cmd := &cobra.Command{
		Use:   "genotype <gene>",
		Short: "Compute activity score and phenotype for a diplotype",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInterpreter(cmd, func(ctx context.Context, interpreter domain.Interpreter) (interface{}, error) {
				return interpreter.InterpretGenotype(ctx, args[0], splitList(diplotype, "/"))
			})
		},
	}
	cmd.Flags().StringVar(&diplotype, "diplotype", "", `Two alleles separated by "/", e.g. "*1/*2"`)
	_ = cmd.MarkFlagRequired("diplotype")
	return cmd
}

func interpretFullCmd() *cobra.Command {
	var diplotype, drugs, planned string
	cmd := &cobra.Command{
		Use:   "full <gene>",
		Short: "Run genotype interpretation, phenoconversion and recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInterpreter(cmd, func(ctx context.Context, interpreter domain.Interpreter) (interface{}, error) {
				return interpreter.InterpretFull(ctx, &domain.InterpretationRequest{
					Gene:         args[0],
					Diplotype:    splitList(diplotype, "/"),
					CurrentDrugs: splitList(drugs, ","),
					PlannedDrug:  planned,
				})
			})
		},
	}
	cmd.Flags().StringVar(&diplotype, "diplotype", "", `Two alleles separated by "/", e.g. "*1/*2"`)
	cmd.Flags().StringVar(&drugs, "current-drugs", "", "Comma separated drugs the patient takes")
	cmd.Flags().StringVar(&planned, "planned-drug", "", "Drug being considered")
	_ = cmd.MarkFlagRequired("diplotype")
	_ = cmd.MarkFlagRequired("planned-drug")
	return cmd
}

func withInterpreter(cmd *cobra.Command, run func(ctx context.Context, interpreter domain.Interpreter) (interface{}, error)) error {
	ctx := context.Background()

	m, logger, err := loadConfig()
	if err != nil {
		return err
	}
	backend, err := app.OpenBackend(ctx, m, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	interpreter, err := app.NewInterpreter(backend.Store, m.GetStoreConfig().MatchPolicy, logger)
	if err != nil {
		return err
	}

	result, err := run(ctx, interpreter)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// splitList splits s on sep and drops surrounding whitespace. Empty input yields nil.
// Drug lists split on "," only: "Trimethoprim/sulfamethoxazole" is one drug.
func splitList(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
