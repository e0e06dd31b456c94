package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/seed"
)

// Seed upserts dataset into the reference tables in a single transaction.
// Phenotype rules of every seeded gene are replaced so bins never accumulate.
func (s *Store) Seed(ctx context.Context, ds *seed.Dataset) error {
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("validating dataset: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	geneIDs := make(map[string]int64, len(ds.Genes))
	for _, g := range ds.Genes {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO genes (symbol) VALUES ($1)
			ON CONFLICT (symbol) DO UPDATE SET symbol = EXCLUDED.symbol
			RETURNING id`, g.Symbol).Scan(&id)
		if err != nil {
			return fmt.Errorf("seeding gene %s: %w", g.Symbol, err)
		}
		geneIDs[g.Symbol] = id

		for _, a := range g.Alleles {
			if _, err := tx.Exec(ctx, `
				INSERT INTO alleles (gene_id, name, activity_score) VALUES ($1, $2, $3)
				ON CONFLICT (gene_id, name) DO UPDATE SET activity_score = EXCLUDED.activity_score`,
				id, a.Name, a.ActivityScore); err != nil {
				return fmt.Errorf("seeding allele %s %s: %w", g.Symbol, a.Name, err)
			}
		}

		if _, err := tx.Exec(ctx, "DELETE FROM phenotype_rules WHERE gene_id = $1", id); err != nil {
			return fmt.Errorf("clearing phenotype rules for %s: %w", g.Symbol, err)
		}
		batch := &pgx.Batch{}
		for _, r := range g.PhenotypeRules {
			batch.Queue(`INSERT INTO phenotype_rules (gene_id, phenotype, min_score, max_score) VALUES ($1, $2, $3, $4)`,
				id, r.Phenotype, r.MinScore, r.MaxScore)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("seeding phenotype rules for %s: %w", g.Symbol, err)
		}
	}

	drugIDs := make(map[string]int64)
	for _, name := range ds.Drugs() {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO drugs (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name).Scan(&id)
		if err != nil {
			return fmt.Errorf("seeding drug %s: %w", name, err)
		}
		drugIDs[name] = id
	}

	for _, e := range ds.DrugEffects {
		if _, err := tx.Exec(ctx, `
			INSERT INTO drug_gene_effects (drug_id, gene_id, effect, strength) VALUES ($1, $2, $3, $4)
			ON CONFLICT (drug_id, gene_id) DO UPDATE SET effect = EXCLUDED.effect, strength = EXCLUDED.strength`,
			drugIDs[e.Drug], geneIDs[e.Gene], e.Effect, e.Strength); err != nil {
			return fmt.Errorf("seeding effect of %s on %s: %w", e.Drug, e.Gene, err)
		}
	}

	for _, g := range ds.Guidelines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO gene_drug_guidelines
				(gene_id, drug_id, phenotype, recommendation_summary, alternatives, evidence_level, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (gene_id, drug_id, phenotype) DO UPDATE SET
				recommendation_summary = EXCLUDED.recommendation_summary,
				alternatives = EXCLUDED.alternatives,
				evidence_level = EXCLUDED.evidence_level,
				source = EXCLUDED.source`,
			geneIDs[g.Gene], drugIDs[g.Drug], g.Phenotype, g.Recommendation, g.Alternatives, g.EvidenceLevel, g.Source); err != nil {
			return fmt.Errorf("seeding guideline %s %s %s: %w", g.Gene, g.Phenotype, g.Drug, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"genes":      len(ds.Genes),
		"drugs":      len(drugIDs),
		"effects":    len(ds.DrugEffects),
		"guidelines": len(ds.Guidelines),
	}).Info("Reference dataset seeded")

	return nil
}

// IsEmpty reports whether no gene has been seeded yet.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM genes)").Scan(&exists); err != nil {
		return false, fmt.Errorf("checking for seeded genes: %w", err)
	}
	return !exists, nil
}
