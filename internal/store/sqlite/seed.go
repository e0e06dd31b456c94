package sqlite

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/seed"
)

// Seed upserts dataset in a single transaction, replacing the phenotype rules of each seeded gene.
func (s *Store) Seed(ctx context.Context, ds *seed.Dataset) error {
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("validating dataset: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	geneIDs := make(map[string]int64, len(ds.Genes))
	for _, g := range ds.Genes {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO genes (symbol) VALUES (?)
			ON CONFLICT(symbol) DO UPDATE SET symbol = excluded.symbol
			RETURNING id`, g.Symbol).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to seed gene %s: %w", g.Symbol, err)
		}
		geneIDs[g.Symbol] = id

		for _, a := range g.Alleles {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO alleles (gene_id, name, activity_score) VALUES (?, ?, ?)
				ON CONFLICT(gene_id, name) DO UPDATE SET activity_score = excluded.activity_score`,
				id, a.Name, a.ActivityScore); err != nil {
				return fmt.Errorf("failed to seed allele %s %s: %w", g.Symbol, a.Name, err)
			}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM phenotype_rules WHERE gene_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear phenotype rules for %s: %w", g.Symbol, err)
		}
		for _, r := range g.PhenotypeRules {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO phenotype_rules (gene_id, phenotype, min_score, max_score) VALUES (?, ?, ?, ?)",
				id, r.Phenotype, r.MinScore, r.MaxScore); err != nil {
				return fmt.Errorf("failed to seed phenotype rule %s %s: %w", g.Symbol, r.Phenotype, err)
			}
		}
	}

	drugIDs := make(map[string]int64)
	for _, name := range ds.Drugs() {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO drugs (name) VALUES (?)
			ON CONFLICT(name) DO UPDATE SET name = excluded.name
			RETURNING id`, name).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to seed drug %s: %w", name, err)
		}
		drugIDs[name] = id
	}

	for _, e := range ds.DrugEffects {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO drug_gene_effects (drug_id, gene_id, effect, strength) VALUES (?, ?, ?, ?)
			ON CONFLICT(drug_id, gene_id) DO UPDATE SET effect = excluded.effect, strength = excluded.strength`,
			drugIDs[e.Drug], geneIDs[e.Gene], e.Effect, e.Strength); err != nil {
			return fmt.Errorf("failed to seed effect of %s on %s: %w", e.Drug, e.Gene, err)
		}
	}

	for _, g := range ds.Guidelines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gene_drug_guidelines
				(gene_id, drug_id, phenotype, recommendation_summary, alternatives, evidence_level, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(gene_id, drug_id, phenotype) DO UPDATE SET
				recommendation_summary = excluded.recommendation_summary,
				alternatives = excluded.alternatives,
				evidence_level = excluded.evidence_level,
				source = excluded.source`,
			geneIDs[g.Gene], drugIDs[g.Drug], g.Phenotype, g.Recommendation, g.Alternatives, g.EvidenceLevel, g.Source); err != nil {
			return fmt.Errorf("failed to seed guideline %s %s %s: %w", g.Gene, g.Phenotype, g.Drug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"genes":      len(ds.Genes),
		"drugs":      len(drugIDs),
		"guidelines": len(ds.Guidelines),
	}).Info("Reference dataset seeded")

	return nil
}

// IsEmpty reports whether no gene has been seeded yet.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM genes").Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count genes: %w", err)
	}
	return count == 0, nil
}
