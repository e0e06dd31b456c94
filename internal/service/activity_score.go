package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// ActivityScoreCalculator sums allele activity values under the diploid additive model.
type ActivityScoreCalculator struct {
	store  domain.ReferenceStore
	logger *logrus.Logger
}

// NewActivityScoreCalculator creates a new activity score calculator
func NewActivityScoreCalculator(store domain.ReferenceStore, logger *logrus.Logger) *ActivityScoreCalculator {
	return &ActivityScoreCalculator{store: store, logger: logger}
}

// ValidateDiplotype checks that diplotype names exactly two non-empty alleles.
// It performs no lookups.
func ValidateDiplotype(diplotype []string) error {
	if len(diplotype) != 2 {
		return domain.NewValidationError("diplotype", "diplotype must be an array of exactly 2 alleles", len(diplotype))
	}
	for _, name := range diplotype {
		if strings.TrimSpace(name) == "" {
			return domain.NewValidationError("diplotype", "allele names must not be empty", diplotype)
		}
	}
	return nil
}

// Compute returns the sum of the two allele activity scores of diplotype for gene.
func (c *ActivityScoreCalculator) Compute(ctx context.Context, gene *domain.Gene, diplotype []string) (float64, error) {
	if err := ValidateDiplotype(diplotype); err != nil {
		return 0, err
	}

	var total float64
	for _, name := range diplotype {
		name = strings.TrimSpace(name)
		allele, err := c.store.FindAlleleScore(ctx, gene.ID, name)
		if err != nil {
			return 0, storeFailure(c.logger, "find allele", err, logrus.Fields{
				"gene_symbol": gene.Symbol,
				"allele":      name,
			})
		}
		if allele == nil {
			return 0, &domain.NotFoundError{Kind: "allele", Key: name, Gene: gene.Symbol}
		}
		total += allele.ActivityScore
	}

	c.logger.WithFields(logrus.Fields{
		"gene_symbol":    gene.Symbol,
		"diplotype":      strings.Join(diplotype, "/"),
		"activity_score": total,
	}).Debug("Computed activity score")

	return total, nil
}
