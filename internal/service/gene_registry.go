package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// GeneRegistry resolves gene symbols to registered genes.
type GeneRegistry struct {
	store  domain.ReferenceStore
	logger *logrus.Logger
}

// NewGeneRegistry creates a new gene registry
func NewGeneRegistry(store domain.ReferenceStore, logger *logrus.Logger) *GeneRegistry {
	return &GeneRegistry{store: store, logger: logger}
}

// Resolve returns the gene registered under symbol.
func (r *GeneRegistry) Resolve(ctx context.Context, symbol string) (*domain.Gene, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, domain.NewValidationError("gene", "gene symbol is required", symbol)
	}

	gene, err := r.store.FindGeneBySymbol(ctx, symbol)
	if err != nil {
		return nil, storeFailure(r.logger, "find gene", err, logrus.Fields{"gene_symbol": symbol})
	}
	if gene == nil {
		return nil, &domain.NotFoundError{Kind: "gene", Key: symbol}
	}

	r.logger.WithFields(logrus.Fields{
		"gene_symbol": gene.Symbol,
		"gene_id":     gene.ID,
	}).Debug("Resolved gene symbol")

	return gene, nil
}
