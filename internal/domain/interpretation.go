package domain

import (
	"encoding/json"
)

// NoGuidanceMessage is returned when no guideline exists for a gene, phenotype and drug.
const NoGuidanceMessage = "No specific pharmacogenetic recommendation for this combination"

// InterpretationRequest is the input of a full interpretation.
type InterpretationRequest struct {
	Gene         string   `json:"gene"`
	Diplotype    []string `json:"diplotype"`
	CurrentDrugs []string `json:"currentDrugs"`
	PlannedDrug  string   `json:"plannedDrug"`
}

// GenotypeResult is the genotype-only interpretation of a diplotype.
type GenotypeResult struct {
	Gene          string    `json:"gene"`
	Diplotype     []string  `json:"diplotype"`
	ActivityScore float64   `json:"activityScore"`
	Phenotype     Phenotype `json:"phenotype"`
}

// PhenoconversionResult is the baseline phenotype adjusted for concurrent drugs.
// Reason is nil when no inhibitor was found.
type PhenoconversionResult struct {
	BaselinePhenotype Phenotype `json:"baselinePhenotype"`
	AdjustedPhenotype Phenotype `json:"adjustedPhenotype"`
	Reason            *string   `json:"reason"`
}

// Recommendation is either guidance for a planned drug or a no-guidance message.
type Recommendation struct {
	Found          bool
	Recommendation string
	Alternatives   string
	EvidenceLevel  string
	Source         string
	Message        string
}

type guidancePayload struct {
	Recommendation string `json:"recommendation"`
	Alternatives   string `json:"alternatives"`
	EvidenceLevel  string `json:"evidenceLevel"`
	Source         string `json:"source"`
}

type absencePayload struct {
	Message string `json:"message"`
}

// NewGuidance builds a found recommendation from a guideline row.
func NewGuidance(entry GuidelineEntry) *Recommendation {
	return &Recommendation{
		Found:          true,
		Recommendation: entry.RecommendationSummary,
		Alternatives:   entry.Alternatives,
		EvidenceLevel:  entry.EvidenceLevel,
		Source:         entry.Source,
	}
}

// NewGuidanceAbsent builds the no-guidance result.
func NewGuidanceAbsent() *Recommendation {
	return &Recommendation{Message: NoGuidanceMessage}
}

// MarshalJSON emits {recommendation, alternatives, evidenceLevel, source} when guidance
// was found and {message} otherwise.
func (r Recommendation) MarshalJSON() ([]byte, error) {
	if r.Found {
		return json.Marshal(guidancePayload{
			Recommendation: r.Recommendation,
			Alternatives:   r.Alternatives,
			EvidenceLevel:  r.EvidenceLevel,
			Source:         r.Source,
		})
	}
	return json.Marshal(absencePayload{Message: r.Message})
}

// UnmarshalJSON accepts either payload shape.
func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if _, ok := raw["recommendation"]; ok {
		var g guidancePayload
		if err := json.Unmarshal(data, &g); err != nil {
			return err
		}
		*r = Recommendation{
			Found:          true,
			Recommendation: g.Recommendation,
			Alternatives:   g.Alternatives,
			EvidenceLevel:  g.EvidenceLevel,
			Source:         g.Source,
		}
		return nil
	}
	var a absencePayload
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = Recommendation{Message: a.Message}
	return nil
}

// InterpretationResult aggregates all three stages of a full interpretation.
type InterpretationResult struct {
	Genetics        GenotypeResult        `json:"genetics"`
	Phenoconversion PhenoconversionResult `json:"phenoconversion"`
	Recommendation  Recommendation        `json:"recommendation"`
}
