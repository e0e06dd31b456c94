// Package memory provides an immutable in-memory reference store built from a seed dataset.
package memory

import (
	"context"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
	"github.com/pgx-interpreter-mcp-server/internal/seed"
)

var _ domain.ReferenceStore = (*Store)(nil)

type alleleKey struct {
	geneID int64
	name   string
}

type effectKey struct {
	drug string
	gene string
}

type guidelineKey struct {
	gene      string
	phenotype domain.Phenotype
	drug      string
}

// Store holds reference data in maps. It is never mutated after New returns,
// so concurrent reads need no locking.
type Store struct {
	genes      map[string]domain.Gene
	alleles    map[alleleKey]domain.Allele
	rules      map[int64][]domain.PhenotypeRule
	effects    map[effectKey][]domain.DrugGeneEffect
	guidelines map[guidelineKey][]domain.GuidelineEntry
}

// New indexes ds. Gene IDs are assigned in dataset order starting at 1.
// The dataset is not validated, so duplicate or overlapping rows are kept in order.
func New(ds *seed.Dataset) *Store {
	s := &Store{
		genes:      make(map[string]domain.Gene),
		alleles:    make(map[alleleKey]domain.Allele),
		rules:      make(map[int64][]domain.PhenotypeRule),
		effects:    make(map[effectKey][]domain.DrugGeneEffect),
		guidelines: make(map[guidelineKey][]domain.GuidelineEntry),
	}

	for i, g := range ds.Genes {
		gene := domain.Gene{ID: int64(i + 1), Symbol: g.Symbol}
		if _, exists := s.genes[g.Symbol]; exists {
			continue
		}
		s.genes[g.Symbol] = gene

		for _, a := range g.Alleles {
			key := alleleKey{geneID: gene.ID, name: a.Name}
			if _, exists := s.alleles[key]; exists {
				continue
			}
			s.alleles[key] = domain.Allele{GeneID: gene.ID, Name: a.Name, ActivityScore: a.ActivityScore}
		}
		for _, r := range g.PhenotypeRules {
			s.rules[gene.ID] = append(s.rules[gene.ID], domain.PhenotypeRule{
				GeneID:    gene.ID,
				Phenotype: domain.Phenotype(r.Phenotype),
				MinScore:  r.MinScore,
				MaxScore:  r.MaxScore,
			})
		}
	}

	for _, e := range ds.DrugEffects {
		gene, ok := s.genes[e.Gene]
		if !ok {
			continue
		}
		key := effectKey{drug: e.Drug, gene: e.Gene}
		s.effects[key] = append(s.effects[key], domain.DrugGeneEffect{
			DrugName:   e.Drug,
			GeneID:     gene.ID,
			GeneSymbol: gene.Symbol,
			Effect:     domain.EffectKind(e.Effect),
			Strength:   e.Strength,
		})
	}

	for _, g := range ds.Guidelines {
		gene, ok := s.genes[g.Gene]
		if !ok {
			continue
		}
		key := guidelineKey{gene: g.Gene, phenotype: domain.Phenotype(g.Phenotype), drug: g.Drug}
		s.guidelines[key] = append(s.guidelines[key], domain.GuidelineEntry{
			GeneID:                gene.ID,
			GeneSymbol:            gene.Symbol,
			Phenotype:             domain.Phenotype(g.Phenotype),
			DrugName:              g.Drug,
			RecommendationSummary: g.Recommendation,
			Alternatives:          g.Alternatives,
			EvidenceLevel:         g.EvidenceLevel,
			Source:                g.Source,
		})
	}

	return s
}

// NewDefault builds a store from the embedded dataset.
func NewDefault() (*Store, error) {
	ds, err := seed.Default()
	if err != nil {
		return nil, err
	}
	return New(ds), nil
}

// FindGeneBySymbol returns the gene or nil.
func (s *Store) FindGeneBySymbol(ctx context.Context, symbol string) (*domain.Gene, error) {
	gene, ok := s.genes[symbol]
	if !ok {
		return nil, nil
	}
	return &gene, nil
}

// FindAlleleScore returns the allele or nil.
func (s *Store) FindAlleleScore(ctx context.Context, geneID int64, alleleName string) (*domain.Allele, error) {
	allele, ok := s.alleles[alleleKey{geneID: geneID, name: alleleName}]
	if !ok {
		return nil, nil
	}
	return &allele, nil
}

// FindPhenotypeRules returns the gene's rules containing score in dataset order.
func (s *Store) FindPhenotypeRules(ctx context.Context, geneID int64, score float64) ([]domain.PhenotypeRule, error) {
	var matched []domain.PhenotypeRule
	for _, r := range s.rules[geneID] {
		if r.Contains(score) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// FindDrugGeneEffects returns a copy of the recorded effects of drugName on geneSymbol.
func (s *Store) FindDrugGeneEffects(ctx context.Context, drugName, geneSymbol string) ([]domain.DrugGeneEffect, error) {
	return append([]domain.DrugGeneEffect(nil), s.effects[effectKey{drug: drugName, gene: geneSymbol}]...), nil
}

// FindGuidelines returns a copy of the guidelines for the key.
func (s *Store) FindGuidelines(ctx context.Context, geneSymbol string, phenotype domain.Phenotype, drugName string) ([]domain.GuidelineEntry, error) {
	key := guidelineKey{gene: geneSymbol, phenotype: phenotype, drug: drugName}
	return append([]domain.GuidelineEntry(nil), s.guidelines[key]...), nil
}

// Health always succeeds.
func (s *Store) Health(ctx context.Context) error {
	return nil
}
