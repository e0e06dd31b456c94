package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// RecommendationResolver looks up clinical guidance for a gene, phenotype and drug.
type RecommendationResolver struct {
	store  domain.ReferenceStore
	policy domain.MatchPolicy
	logger *logrus.Logger
}

// NewRecommendationResolver creates a new recommendation resolver
func NewRecommendationResolver(store domain.ReferenceStore, policy domain.MatchPolicy, logger *logrus.Logger) *RecommendationResolver {
	return &RecommendationResolver{store: store, policy: policy, logger: logger}
}

// Resolve returns the guideline for the key, or the no-guidance result when none exists.
func (r *RecommendationResolver) Resolve(ctx context.Context, gene string, phenotype domain.Phenotype, drug string) (*domain.Recommendation, error) {
	fields := logrus.Fields{
		"gene_symbol": gene,
		"phenotype":   phenotype,
		"drug":        drug,
	}

	entries, err := r.store.FindGuidelines(ctx, gene, phenotype, drug)
	if err != nil {
		return nil, storeFailure(r.logger, "find guidelines", err, fields)
	}

	switch {
	case len(entries) == 0:
		r.logger.WithFields(fields).Debug("No guideline for combination")
		return domain.NewGuidanceAbsent(), nil
	case len(entries) > 1 && r.policy == domain.MatchStrict:
		return nil, &domain.AmbiguousRuleError{
			Kind:    "guideline",
			Gene:    gene,
			Key:     "phenotype " + string(phenotype) + " and drug " + drug,
			Matches: len(entries),
		}
	case len(entries) > 1:
		r.logger.WithFields(fields).WithField("matches", len(entries)).Warn("Duplicate guidelines, using first match")
	}

	return domain.NewGuidance(entries[0]), nil
}
