// Package seed loads pharmacogenomic reference datasets from YAML.
// A dataset is the unit every store backend is populated from.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

//go:embed data/default.yaml
var defaultDataset []byte

// Dataset is a complete set of reference data.
type Dataset struct {
	Version     int             `yaml:"version"`
	Genes       []GeneSeed      `yaml:"genes"`
	DrugEffects []EffectSeed    `yaml:"drug_effects"`
	Guidelines  []GuidelineSeed `yaml:"guidelines"`
}

// GeneSeed is a gene with its alleles and phenotype bins.
type GeneSeed struct {
	Symbol         string       `yaml:"symbol"`
	Alleles        []AlleleSeed `yaml:"alleles"`
	PhenotypeRules []RuleSeed   `yaml:"phenotype_rules"`
}

// AlleleSeed is a named allele activity value.
type AlleleSeed struct {
	Name          string  `yaml:"name"`
	ActivityScore float64 `yaml:"activity_score"`
}

// RuleSeed is an inclusive score interval for a phenotype.
type RuleSeed struct {
	Phenotype string  `yaml:"phenotype"`
	MinScore  float64 `yaml:"min_score"`
	MaxScore  float64 `yaml:"max_score"`
}

// EffectSeed records a drug's effect on a gene.
type EffectSeed struct {
	Drug     string `yaml:"drug"`
	Gene     string `yaml:"gene"`
	Effect   string `yaml:"effect"`
	Strength string `yaml:"strength"`
}

// GuidelineSeed is guidance for a gene, phenotype and drug.
type GuidelineSeed struct {
	Gene           string `yaml:"gene"`
	Phenotype      string `yaml:"phenotype"`
	Drug           string `yaml:"drug"`
	Recommendation string `yaml:"recommendation"`
	Alternatives   string `yaml:"alternatives"`
	EvidenceLevel  string `yaml:"evidence_level"`
	Source         string `yaml:"source"`
}

// Default returns the embedded dataset.
func Default() (*Dataset, error) {
	ds, err := Parse(defaultDataset)
	if err != nil {
		return nil, fmt.Errorf("loading default dataset: %w", err)
	}
	return ds, nil
}

// Load reads a dataset file. An empty path yields the embedded dataset.
func Load(path string) (*Dataset, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes a YAML dataset. It checks structure only; call Validate for data integrity.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	if ds.Version != 1 {
		return nil, fmt.Errorf("unsupported dataset version: %d", ds.Version)
	}
	return &ds, nil
}

// Drugs returns every drug name referenced by effects or guidelines, in first-seen order.
func (d *Dataset) Drugs() []string {
	seen := make(map[string]bool)
	var drugs []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			drugs = append(drugs, name)
		}
	}
	for _, e := range d.DrugEffects {
		add(e.Drug)
	}
	for _, g := range d.Guidelines {
		add(g.Drug)
	}
	return drugs
}

// Validate reports every integrity problem in the dataset. Phenotype intervals of a
// gene must not overlap and each gene, phenotype and drug has at most one guideline.
func (d *Dataset) Validate() error {
	var errs []error
	genes := make(map[string]bool)

	for _, g := range d.Genes {
		symbol := strings.TrimSpace(g.Symbol)
		if symbol == "" {
			errs = append(errs, errors.New("gene with empty symbol"))
			continue
		}
		if genes[symbol] {
			errs = append(errs, fmt.Errorf("duplicate gene %s", symbol))
		}
		genes[symbol] = true

		alleles := make(map[string]bool)
		for _, a := range g.Alleles {
			if a.Name == "" {
				errs = append(errs, fmt.Errorf("gene %s: allele with empty name", symbol))
			}
			if alleles[a.Name] {
				errs = append(errs, fmt.Errorf("gene %s: duplicate allele %s", symbol, a.Name))
			}
			alleles[a.Name] = true
		}

		for i, r := range g.PhenotypeRules {
			if r.Phenotype == "" {
				errs = append(errs, fmt.Errorf("gene %s: rule %d has no phenotype", symbol, i))
			}
			if r.MinScore > r.MaxScore {
				errs = append(errs, fmt.Errorf("gene %s: rule %s has min %s above max %s",
					symbol, r.Phenotype, domain.FormatScore(r.MinScore), domain.FormatScore(r.MaxScore)))
			}
			for _, other := range g.PhenotypeRules[i+1:] {
				if r.MinScore <= other.MaxScore && other.MinScore <= r.MaxScore {
					errs = append(errs, fmt.Errorf("gene %s: rules %s and %s overlap", symbol, r.Phenotype, other.Phenotype))
				}
			}
		}
	}

	for _, e := range d.DrugEffects {
		if e.Drug == "" {
			errs = append(errs, fmt.Errorf("effect on %s has no drug", e.Gene))
		}
		if !genes[e.Gene] {
			errs = append(errs, fmt.Errorf("effect of %s references unknown gene %s", e.Drug, e.Gene))
		}
		if !domain.EffectKind(e.Effect).Valid() {
			errs = append(errs, fmt.Errorf("effect of %s on %s has unknown kind %q", e.Drug, e.Gene, e.Effect))
		}
	}

	guidelines := make(map[string]bool)
	for _, g := range d.Guidelines {
		if !genes[g.Gene] {
			errs = append(errs, fmt.Errorf("guideline for %s references unknown gene %s", g.Drug, g.Gene))
		}
		if g.Drug == "" || g.Phenotype == "" {
			errs = append(errs, fmt.Errorf("guideline for gene %s is missing drug or phenotype", g.Gene))
		}
		key := g.Gene + "|" + g.Phenotype + "|" + g.Drug
		if guidelines[key] {
			errs = append(errs, fmt.Errorf("duplicate guideline for %s %s %s", g.Gene, g.Phenotype, g.Drug))
		}
		guidelines[key] = true
	}

	return errors.Join(errs...)
}
