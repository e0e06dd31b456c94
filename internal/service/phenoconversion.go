package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// InhibitorMatch identifies the drug that triggered a phenoconversion.
type InhibitorMatch struct {
	Drug string
	Gene string
}

// Reason renders the match as the message attached to an adjusted phenotype.
func (m InhibitorMatch) Reason() string {
	return fmt.Sprintf("%s inhibits %s", m.Drug, m.Gene)
}

// InhibitorLookup reports whether drug is a recorded inhibitor of the gene under scan.
type InhibitorLookup func(ctx context.Context, drug string) (bool, error)

// ScanForInhibitor walks drugs left to right and returns the first one lookup reports as
// an inhibitor. Drugs after the match are never examined.
func ScanForInhibitor(ctx context.Context, gene string, drugs []string, lookup InhibitorLookup) (*InhibitorMatch, error) {
	for _, drug := range drugs {
		inhibits, err := lookup(ctx, drug)
		if err != nil {
			return nil, err
		}
		if inhibits {
			return &InhibitorMatch{Drug: drug, Gene: gene}, nil
		}
	}
	return nil, nil
}

// Adjust applies at most one degradation step for an inhibitor match.
func Adjust(baseline domain.Phenotype, match *InhibitorMatch) domain.PhenoconversionResult {
	result := domain.PhenoconversionResult{
		BaselinePhenotype: baseline,
		AdjustedPhenotype: baseline,
	}
	if match == nil {
		return result
	}
	result.AdjustedPhenotype = baseline.Degrade()
	reason := match.Reason()
	result.Reason = &reason
	return result
}

// PhenoconversionEngine adjusts a baseline phenotype for concurrently administered inhibitors.
// Only inhibition is modeled and multiple inhibitors do not compound.
type PhenoconversionEngine struct {
	store  domain.ReferenceStore
	logger *logrus.Logger
}

// NewPhenoconversionEngine creates a new phenoconversion engine
func NewPhenoconversionEngine(store domain.ReferenceStore, logger *logrus.Logger) *PhenoconversionEngine {
	return &PhenoconversionEngine{store: store, logger: logger}
}

// ValidateDrugs rejects blank entries in a drug list. A nil or empty list is valid.
func ValidateDrugs(field string, drugs []string) error {
	for i, drug := range drugs {
		if strings.TrimSpace(drug) == "" {
			return domain.NewValidationError(field, fmt.Sprintf("drug at index %d must not be empty", i), drugs)
		}
	}
	return nil
}

// Apply returns baseline adjusted for the first inhibitor of gene in currentDrugs.
func (e *PhenoconversionEngine) Apply(ctx context.Context, gene string, baseline domain.Phenotype, currentDrugs []string) (*domain.PhenoconversionResult, error) {
	lookup := func(ctx context.Context, drug string) (bool, error) {
		effects, err := e.store.FindDrugGeneEffects(ctx, strings.TrimSpace(drug), gene)
		if err != nil {
			return false, storeFailure(e.logger, "find drug gene effects", err, logrus.Fields{
				"gene_symbol": gene,
				"drug":        drug,
			})
		}
		for _, effect := range effects {
			if effect.Effect == domain.EffectInhibitor {
				return true, nil
			}
		}
		return false, nil
	}

	match, err := ScanForInhibitor(ctx, gene, currentDrugs, lookup)
	if err != nil {
		return nil, err
	}

	result := Adjust(baseline, match)
	if match != nil {
		e.logger.WithFields(logrus.Fields{
			"gene_symbol":        gene,
			"drug":               match.Drug,
			"baseline_phenotype": baseline,
			"adjusted_phenotype": result.AdjustedPhenotype,
		}).Info("Phenoconversion applied")
	}

	return &result, nil
}
