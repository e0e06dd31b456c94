// Package postgres implements the reference store over a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// Store reads reference data from PostgreSQL. It is safe for concurrent use.
type Store struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewStore creates a new postgres reference store
func NewStore(db *pgxpool.Pool, logger *logrus.Logger) *Store {
	return &Store{
		db:  db,
		log: logger,
	}
}

var _ domain.ReferenceStore = (*Store)(nil)

// FindGeneBySymbol retrieves a gene by its symbol
func (s *Store) FindGeneBySymbol(ctx context.Context, symbol string) (*domain.Gene, error) {
	var gene domain.Gene
	err := s.db.QueryRow(ctx, "SELECT id, symbol FROM genes WHERE symbol = $1", symbol).
		Scan(&gene.ID, &gene.Symbol)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		s.log.WithFields(logrus.Fields{
			"gene_symbol": symbol,
			"error":       err,
		}).Error("Failed to get gene by symbol")
		return nil, fmt.Errorf("getting gene by symbol: %w", err)
	}
	return &gene, nil
}

// FindAlleleScore retrieves an allele of a gene by name
func (s *Store) FindAlleleScore(ctx context.Context, geneID int64, alleleName string) (*domain.Allele, error) {
	allele := domain.Allele{GeneID: geneID, Name: alleleName}
	err := s.db.QueryRow(ctx,
		"SELECT activity_score FROM alleles WHERE gene_id = $1 AND name = $2",
		geneID, alleleName,
	).Scan(&allele.ActivityScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		s.log.WithFields(logrus.Fields{
			"gene_id": geneID,
			"allele":  alleleName,
			"error":   err,
		}).Error("Failed to get allele score")
		return nil, fmt.Errorf("getting allele score: %w", err)
	}
	return &allele, nil
}

// FindPhenotypeRules retrieves the rules of a gene whose interval contains score
func (s *Store) FindPhenotypeRules(ctx context.Context, geneID int64, score float64) ([]domain.PhenotypeRule, error) {
	query := `
		SELECT gene_id, phenotype, min_score, max_score
		FROM phenotype_rules
		WHERE gene_id = $1 AND $2 BETWEEN min_score AND max_score
		ORDER BY id`

	rows, err := s.db.Query(ctx, query, geneID, score)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"gene_id":        geneID,
			"activity_score": score,
			"error":          err,
		}).Error("Failed to query phenotype rules")
		return nil, fmt.Errorf("querying phenotype rules: %w", err)
	}
	defer rows.Close()

	rules := []domain.PhenotypeRule{}
	for rows.Next() {
		var rule domain.PhenotypeRule
		var phenotype string
		if err := rows.Scan(&rule.GeneID, &phenotype, &rule.MinScore, &rule.MaxScore); err != nil {
			return nil, fmt.Errorf("scanning phenotype rule: %w", err)
		}
		rule.Phenotype = domain.Phenotype(phenotype)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating phenotype rules: %w", err)
	}

	return rules, nil
}

// FindDrugGeneEffects retrieves the recorded effects of a drug on a gene
func (s *Store) FindDrugGeneEffects(ctx context.Context, drugName, geneSymbol string) ([]domain.DrugGeneEffect, error) {
	query := `
		SELECT d.name, g.id, g.symbol, dge.effect, dge.strength
		FROM drug_gene_effects dge
		JOIN drugs d ON d.id = dge.drug_id
		JOIN genes g ON g.id = dge.gene_id
		WHERE d.name = $1 AND g.symbol = $2
		ORDER BY dge.id`

	rows, err := s.db.Query(ctx, query, drugName, geneSymbol)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"drug":        drugName,
			"gene_symbol": geneSymbol,
			"error":       err,
		}).Error("Failed to query drug gene effects")
		return nil, fmt.Errorf("querying drug gene effects: %w", err)
	}
	defer rows.Close()

	effects := []domain.DrugGeneEffect{}
	for rows.Next() {
		var effect domain.DrugGeneEffect
		var kind string
		if err := rows.Scan(&effect.DrugName, &effect.GeneID, &effect.GeneSymbol, &kind, &effect.Strength); err != nil {
			return nil, fmt.Errorf("scanning drug gene effect: %w", err)
		}
		effect.Effect = domain.EffectKind(kind)
		effects = append(effects, effect)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drug gene effects: %w", err)
	}

	return effects, nil
}

// FindGuidelines retrieves the guidelines for a gene, phenotype and drug
func (s *Store) FindGuidelines(ctx context.Context, geneSymbol string, phenotype domain.Phenotype, drugName string) ([]domain.GuidelineEntry, error) {
	query := `
		SELECT g.id, g.symbol, gdg.phenotype, d.name,
			   gdg.recommendation_summary, gdg.alternatives, gdg.evidence_level, gdg.source
		FROM gene_drug_guidelines gdg
		JOIN genes g ON g.id = gdg.gene_id
		JOIN drugs d ON d.id = gdg.drug_id
		WHERE g.symbol = $1 AND d.name = $2 AND gdg.phenotype = $3
		ORDER BY gdg.id`

	rows, err := s.db.Query(ctx, query, geneSymbol, drugName, string(phenotype))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"gene_symbol": geneSymbol,
			"phenotype":   phenotype,
			"drug":        drugName,
			"error":       err,
		}).Error("Failed to query guidelines")
		return nil, fmt.Errorf("querying guidelines: %w", err)
	}
	defer rows.Close()

	entries := []domain.GuidelineEntry{}
	for rows.Next() {
		var entry domain.GuidelineEntry
		var label string
		if err := rows.Scan(
			&entry.GeneID,
			&entry.GeneSymbol,
			&label,
			&entry.DrugName,
			&entry.RecommendationSummary,
			&entry.Alternatives,
			&entry.EvidenceLevel,
			&entry.Source,
		); err != nil {
			return nil, fmt.Errorf("scanning guideline: %w", err)
		}
		entry.Phenotype = domain.Phenotype(label)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating guidelines: %w", err)
	}

	return entries, nil
}

// Health pings the pool.
func (s *Store) Health(ctx context.Context) error {
	return s.db.Ping(ctx)
}
