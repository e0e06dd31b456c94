// Package domain contains the reference entities, request-scoped results and error taxonomy
// for pharmacogenomic interpretation: diplotype activity scoring, metabolizer phenotype
// classification, drug-induced phenoconversion and guideline lookup.
//
// Activity score conventions follow CPIC: each allele carries a function value and a
// diplotype's score is the sum of its two alleles.
package domain

import (
	"fmt"
	"strings"
)

// Phenotype is a metabolizer class label as stored in phenotype rules and guidelines.
type Phenotype string

const (
	PoorMetabolizer         Phenotype = "PM"
	IntermediateMetabolizer Phenotype = "IM"
	NormalMetabolizer       Phenotype = "NM"
	RapidMetabolizer        Phenotype = "RM"
	UltrarapidMetabolizer   Phenotype = "UM"
)

// String returns the label.
func (p Phenotype) String() string {
	return string(p)
}

// Degrade returns the phenotype one class lower in function after inhibition.
// NM becomes IM and IM becomes PM; every other label, PM included, is returned unchanged.
func (p Phenotype) Degrade() Phenotype {
	switch p {
	case NormalMetabolizer:
		return IntermediateMetabolizer
	case IntermediateMetabolizer:
		return PoorMetabolizer
	default:
		return p
	}
}

// EffectKind is the recorded effect of a drug on a gene product.
type EffectKind string

const (
	EffectInhibitor EffectKind = "inhibitor"
	EffectInducer   EffectKind = "inducer"
	EffectNone      EffectKind = "none"
)

// Valid reports whether k is one of the known effect kinds.
func (k EffectKind) Valid() bool {
	switch k {
	case EffectInhibitor, EffectInducer, EffectNone:
		return true
	}
	return false
}

// MatchPolicy selects how a lookup that returns more than one row is resolved.
type MatchPolicy string

const (
	// MatchFirst takes the first row in the store's return order.
	MatchFirst MatchPolicy = "first"
	// MatchStrict fails with AmbiguousRuleError when more than one row matches.
	MatchStrict MatchPolicy = "strict"
)

// ParseMatchPolicy parses a policy name. The empty string yields MatchStrict.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch MatchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchStrict:
		return MatchStrict, nil
	case MatchFirst:
		return MatchFirst, nil
	default:
		return "", fmt.Errorf("unknown match policy %q", s)
	}
}

// Gene is a registered gene.
type Gene struct {
	ID     int64  `json:"id"`
	Symbol string `json:"symbol"`
}

// Allele is a named star allele of a gene with its activity value.
type Allele struct {
	GeneID        int64   `json:"gene_id"`
	Name          string  `json:"name"`
	ActivityScore float64 `json:"activity_score"`
}

// PhenotypeRule maps an inclusive activity score interval to a phenotype.
type PhenotypeRule struct {
	GeneID    int64     `json:"gene_id"`
	Phenotype Phenotype `json:"phenotype"`
	MinScore  float64   `json:"min_score"`
	MaxScore  float64   `json:"max_score"`
}

// Contains reports whether score lies in [MinScore, MaxScore].
func (r PhenotypeRule) Contains(score float64) bool {
	return score >= r.MinScore && score <= r.MaxScore
}

// DrugGeneEffect records a drug's effect on a gene product.
type DrugGeneEffect struct {
	DrugName   string     `json:"drug_name"`
	GeneID     int64      `json:"gene_id"`
	GeneSymbol string     `json:"gene_symbol"`
	Effect     EffectKind `json:"effect"`
	Strength   string     `json:"strength,omitempty"`
}

// GuidelineEntry is clinical guidance keyed by gene, phenotype and drug.
type GuidelineEntry struct {
	GeneID                int64     `json:"gene_id"`
	GeneSymbol            string    `json:"gene_symbol"`
	Phenotype             Phenotype `json:"phenotype"`
	DrugName              string    `json:"drug_name"`
	RecommendationSummary string    `json:"recommendation_summary"`
	Alternatives          string    `json:"alternatives"`
	EvidenceLevel         string    `json:"evidence_level"`
	Source                string    `json:"source"`
}
