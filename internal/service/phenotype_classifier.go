package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// PhenotypeClassifier maps an activity score to a metabolizer phenotype through range rules.
type PhenotypeClassifier struct {
	store  domain.ReferenceStore
	policy domain.MatchPolicy
	logger *logrus.Logger
}

// NewPhenotypeClassifier creates a new phenotype classifier
func NewPhenotypeClassifier(store domain.ReferenceStore, policy domain.MatchPolicy, logger *logrus.Logger) *PhenotypeClassifier {
	return &PhenotypeClassifier{store: store, policy: policy, logger: logger}
}

// Classify returns the phenotype of the rule whose inclusive interval contains score.
func (c *PhenotypeClassifier) Classify(ctx context.Context, gene *domain.Gene, score float64) (domain.Phenotype, error) {
	rules, err := c.store.FindPhenotypeRules(ctx, gene.ID, score)
	if err != nil {
		return "", storeFailure(c.logger, "find phenotype rules", err, logrus.Fields{
			"gene_symbol":    gene.Symbol,
			"activity_score": score,
		})
	}

	// Stores filter by interval; re-check so a loose store cannot widen a match.
	var matched []domain.PhenotypeRule
	for _, r := range rules {
		if r.Contains(score) {
			matched = append(matched, r)
		}
	}

	if len(matched) == 0 {
		return "", &domain.NoMatchError{Gene: gene.Symbol, Score: score}
	}
	if len(matched) > 1 {
		if c.policy == domain.MatchStrict {
			return "", &domain.AmbiguousRuleError{
				Kind:    "phenotype rule",
				Gene:    gene.Symbol,
				Key:     "score " + domain.FormatScore(score),
				Matches: len(matched),
			}
		}
		c.logger.WithFields(logrus.Fields{
			"gene_symbol":    gene.Symbol,
			"activity_score": score,
			"matches":        len(matched),
		}).Warn("Overlapping phenotype rules, using first match")
	}

	return matched[0].Phenotype, nil
}
