// Package sqlite implements the reference store on an embedded SQLite database
// for standalone deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// Store reads reference data from SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
	log    *logrus.Logger
}

var _ domain.ReferenceStore = (*Store)(nil)

// Open opens or creates the reference database at dbPath and ensures its schema.
func Open(dbPath string, logger *logrus.Logger) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	store := NewWithDB(db, logger)
	store.dbPath = dbPath

	logger.WithField("db_path", dbPath).Info("SQLite reference store opened")
	return store, nil
}

// NewWithDB wraps an existing handle whose schema is already in place.
func NewWithDB(db *sql.DB, logger *logrus.Logger) *Store {
	return &Store{db: db, log: logger}
}

// createSchema creates the reference tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS genes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS alleles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		gene_id INTEGER NOT NULL REFERENCES genes(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		activity_score REAL NOT NULL,
		UNIQUE(gene_id, name)
	);

	CREATE TABLE IF NOT EXISTS phenotype_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		gene_id INTEGER NOT NULL REFERENCES genes(id) ON DELETE CASCADE,
		phenotype TEXT NOT NULL,
		min_score REAL NOT NULL,
		max_score REAL NOT NULL,
		CHECK (min_score <= max_score)
	);

	CREATE TABLE IF NOT EXISTS drugs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS drug_gene_effects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		drug_id INTEGER NOT NULL REFERENCES drugs(id) ON DELETE CASCADE,
		gene_id INTEGER NOT NULL REFERENCES genes(id) ON DELETE CASCADE,
		effect TEXT NOT NULL CHECK (effect IN ('inhibitor', 'inducer', 'none')),
		strength TEXT NOT NULL DEFAULT '',
		UNIQUE(drug_id, gene_id)
	);

	CREATE TABLE IF NOT EXISTS gene_drug_guidelines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		gene_id INTEGER NOT NULL REFERENCES genes(id) ON DELETE CASCADE,
		drug_id INTEGER NOT NULL REFERENCES drugs(id) ON DELETE CASCADE,
		phenotype TEXT NOT NULL,
		recommendation_summary TEXT NOT NULL,
		alternatives TEXT NOT NULL DEFAULT '',
		evidence_level TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		UNIQUE(gene_id, drug_id, phenotype)
	);

	CREATE INDEX IF NOT EXISTS idx_phenotype_rules_gene ON phenotype_rules(gene_id, min_score, max_score);
	CREATE INDEX IF NOT EXISTS idx_drug_gene_effects_lookup ON drug_gene_effects(drug_id, gene_id);
	`

	_, err := db.Exec(schema)
	return err
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// FindGeneBySymbol retrieves a gene by its symbol.
func (s *Store) FindGeneBySymbol(ctx context.Context, symbol string) (*domain.Gene, error) {
	var gene domain.Gene
	err := s.db.QueryRowContext(ctx, "SELECT id, symbol FROM genes WHERE symbol = ?", symbol).
		Scan(&gene.ID, &gene.Symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gene: %w", err)
	}
	return &gene, nil
}

// FindAlleleScore retrieves an allele of a gene by name.
func (s *Store) FindAlleleScore(ctx context.Context, geneID int64, alleleName string) (*domain.Allele, error) {
	allele := domain.Allele{GeneID: geneID, Name: alleleName}
	err := s.db.QueryRowContext(ctx,
		"SELECT activity_score FROM alleles WHERE gene_id = ? AND name = ?",
		geneID, alleleName,
	).Scan(&allele.ActivityScore)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allele: %w", err)
	}
	return &allele, nil
}

func scanRule(s scanner) (domain.PhenotypeRule, error) {
	var rule domain.PhenotypeRule
	var phenotype string
	if err := s.Scan(&rule.GeneID, &phenotype, &rule.MinScore, &rule.MaxScore); err != nil {
		return rule, err
	}
	rule.Phenotype = domain.Phenotype(phenotype)
	return rule, nil
}

// FindPhenotypeRules retrieves the rules of a gene whose interval contains score.
func (s *Store) FindPhenotypeRules(ctx context.Context, geneID int64, score float64) ([]domain.PhenotypeRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gene_id, phenotype, min_score, max_score
		FROM phenotype_rules
		WHERE gene_id = ? AND ? BETWEEN min_score AND max_score
		ORDER BY id`, geneID, score)
	if err != nil {
		return nil, fmt.Errorf("failed to query phenotype rules: %w", err)
	}
	defer rows.Close()

	rules := []domain.PhenotypeRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phenotype rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanEffect(s scanner) (domain.DrugGeneEffect, error) {
	var effect domain.DrugGeneEffect
	var kind string
	if err := s.Scan(&effect.DrugName, &effect.GeneID, &effect.GeneSymbol, &kind, &effect.Strength); err != nil {
		return effect, err
	}
	effect.Effect = domain.EffectKind(kind)
	return effect, nil
}

// FindDrugGeneEffects retrieves the recorded effects of a drug on a gene.
func (s *Store) FindDrugGeneEffects(ctx context.Context, drugName, geneSymbol string) ([]domain.DrugGeneEffect, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.name, g.id, g.symbol, dge.effect, dge.strength
		FROM drug_gene_effects dge
		JOIN drugs d ON d.id = dge.drug_id
		JOIN genes g ON g.id = dge.gene_id
		WHERE d.name = ? AND g.symbol = ?
		ORDER BY dge.id`, drugName, geneSymbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query drug gene effects: %w", err)
	}
	defer rows.Close()

	effects := []domain.DrugGeneEffect{}
	for rows.Next() {
		effect, err := scanEffect(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan drug gene effect: %w", err)
		}
		effects = append(effects, effect)
	}
	return effects, rows.Err()
}

func scanGuideline(s scanner) (domain.GuidelineEntry, error) {
	var entry domain.GuidelineEntry
	var phenotype string
	err := s.Scan(
		&entry.GeneID, &entry.GeneSymbol, &phenotype, &entry.DrugName,
		&entry.RecommendationSummary, &entry.Alternatives, &entry.EvidenceLevel, &entry.Source,
	)
	if err != nil {
		return entry, err
	}
	entry.Phenotype = domain.Phenotype(phenotype)
	return entry, nil
}

// FindGuidelines retrieves the guidelines for a gene, phenotype and drug.
func (s *Store) FindGuidelines(ctx context.Context, geneSymbol string, phenotype domain.Phenotype, drugName string) ([]domain.GuidelineEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.symbol, gdg.phenotype, d.name,
			gdg.recommendation_summary, gdg.alternatives, gdg.evidence_level, gdg.source
		FROM gene_drug_guidelines gdg
		JOIN genes g ON g.id = gdg.gene_id
		JOIN drugs d ON d.id = gdg.drug_id
		WHERE g.symbol = ? AND d.name = ? AND gdg.phenotype = ?
		ORDER BY gdg.id`, geneSymbol, drugName, string(phenotype))
	if err != nil {
		return nil, fmt.Errorf("failed to query guidelines: %w", err)
	}
	defer rows.Close()

	entries := []domain.GuidelineEntry{}
	for rows.Next() {
		entry, err := scanGuideline(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guideline: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Health pings the database.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
