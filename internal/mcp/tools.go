package mcp

import (
	"context"
	"errors"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

const (
	toolInterpretGenotype    = "interpret_genotype"
	toolApplyPhenoconversion = "apply_phenoconversion"
	toolGetRecommendation    = "get_recommendation"
	toolInterpretFull        = "interpret_full"
)

var errInternal = errors.New("internal error")

type InterpretGenotypeInput struct {
	Gene      string   `json:"gene" jsonschema:"gene symbol, e.g. CYP2C19"`
	Diplotype []string `json:"diplotype" jsonschema:"exactly two star alleles, e.g. [\"*1\", \"*2\"]"`
}

type ApplyPhenoconversionInput struct {
	Gene         string   `json:"gene" jsonschema:"gene symbol"`
	Phenotype    string   `json:"phenotype" jsonschema:"baseline phenotype: PM, IM, NM, RM or UM"`
	CurrentDrugs []string `json:"currentDrugs,omitempty" jsonschema:"drugs the patient currently takes"`
}

type GetRecommendationInput struct {
	Gene      string `json:"gene" jsonschema:"gene symbol"`
	Phenotype string `json:"phenotype" jsonschema:"effective phenotype"`
	Drug      string `json:"drug" jsonschema:"planned drug"`
}

type InterpretFullInput struct {
	Gene         string   `json:"gene" jsonschema:"gene symbol"`
	Diplotype    []string `json:"diplotype" jsonschema:"exactly two star alleles"`
	CurrentDrugs []string `json:"currentDrugs,omitempty" jsonschema:"drugs the patient currently takes"`
	PlannedDrug  string   `json:"plannedDrug" jsonschema:"drug being considered"`
}

type GenotypeOutput struct {
	Gene          string   `json:"gene"`
	Diplotype     []string `json:"diplotype"`
	ActivityScore float64  `json:"activityScore"`
	Phenotype     string   `json:"phenotype"`
}

// PhenoconversionOutput carries a null reason when no inhibitor was found.
type PhenoconversionOutput struct {
	BaselinePhenotype string  `json:"baselinePhenotype"`
	AdjustedPhenotype string  `json:"adjustedPhenotype"`
	Reason            *string `json:"reason"`
}

// RecommendationOutput is either {recommendation, alternatives, evidenceLevel, source}
// or {message}. Guidance fields are all set together, empty strings included.
type RecommendationOutput struct {
	Recommendation *string `json:"recommendation,omitempty"`
	Alternatives   *string `json:"alternatives,omitempty"`
	EvidenceLevel  *string `json:"evidenceLevel,omitempty"`
	Source         *string `json:"source,omitempty"`
	Message        *string `json:"message,omitempty"`
}

type InterpretFullOutput struct {
	Genetics        GenotypeOutput        `json:"genetics"`
	Phenoconversion PhenoconversionOutput `json:"phenoconversion"`
	Recommendation  RecommendationOutput  `json:"recommendation"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        toolInterpretGenotype,
		Description: "Compute the activity score and metabolizer phenotype for a gene diplotype",
	}, s.handleInterpretGenotype)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        toolApplyPhenoconversion,
		Description: "Adjust a baseline phenotype for inhibitors among the current drugs",
	}, s.handleApplyPhenoconversion)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        toolGetRecommendation,
		Description: "Look up prescribing guidance for a gene, phenotype and drug",
	}, s.handleGetRecommendation)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        toolInterpretFull,
		Description: "Run genotype interpretation, phenoconversion and recommendation in one call",
	}, s.handleInterpretFull)

	s.logger.WithField("tool_count", 4).Debug("Registered MCP tools")
}

func (s *Server) handleInterpretGenotype(ctx context.Context, req *sdk.CallToolRequest, input InterpretGenotypeInput) (*sdk.CallToolResult, GenotypeOutput, error) {
	result, err := s.interpreter.InterpretGenotype(ctx, input.Gene, input.Diplotype)
	if err != nil {
		return nil, GenotypeOutput{}, s.toolError(toolInterpretGenotype, err)
	}
	s.record(toolInterpretGenotype, nil)
	return nil, genotypeOutput(result), nil
}

func (s *Server) handleApplyPhenoconversion(ctx context.Context, req *sdk.CallToolRequest, input ApplyPhenoconversionInput) (*sdk.CallToolResult, PhenoconversionOutput, error) {
	result, err := s.interpreter.ApplyPhenoconversion(ctx, input.Gene, domain.Phenotype(input.Phenotype), input.CurrentDrugs)
	if err != nil {
		return nil, PhenoconversionOutput{}, s.toolError(toolApplyPhenoconversion, err)
	}
	s.record(toolApplyPhenoconversion, nil)
	if result.Reason != nil {
		s.recordPhenoconversion(input.Gene)
	}
	return nil, phenoconversionOutput(result), nil
}

func (s *Server) handleGetRecommendation(ctx context.Context, req *sdk.CallToolRequest, input GetRecommendationInput) (*sdk.CallToolResult, RecommendationOutput, error) {
	result, err := s.interpreter.GetRecommendation(ctx, input.Gene, domain.Phenotype(input.Phenotype), input.Drug)
	if err != nil {
		return nil, RecommendationOutput{}, s.toolError(toolGetRecommendation, err)
	}
	s.record(toolGetRecommendation, nil)
	return nil, recommendationOutput(result), nil
}

func (s *Server) handleInterpretFull(ctx context.Context, req *sdk.CallToolRequest, input InterpretFullInput) (*sdk.CallToolResult, InterpretFullOutput, error) {
	result, err := s.interpreter.InterpretFull(ctx, &domain.InterpretationRequest{
		Gene:         input.Gene,
		Diplotype:    input.Diplotype,
		CurrentDrugs: input.CurrentDrugs,
		PlannedDrug:  input.PlannedDrug,
	})
	if err != nil {
		return nil, InterpretFullOutput{}, s.toolError(toolInterpretFull, err)
	}
	s.record(toolInterpretFull, nil)
	if result.Phenoconversion.Reason != nil {
		s.recordPhenoconversion(result.Genetics.Gene)
	}
	return nil, InterpretFullOutput{
		Genetics:        genotypeOutput(&result.Genetics),
		Phenoconversion: phenoconversionOutput(&result.Phenoconversion),
		Recommendation:  recommendationOutput(&result.Recommendation),
	}, nil
}

// toolError logs a failed call and returns the error reported to the client.
// Unclassified errors are replaced so internals never reach the client.
func (s *Server) toolError(tool string, err error) error {
	code := domain.ErrorCode(err)
	s.record(tool, err)
	s.logger.WithFields(logrus.Fields{
		"tool": tool,
		"code": code,
	}).WithError(err).Info("MCP tool call failed")

	if code == domain.ErrInternalServer {
		return errInternal
	}
	return err
}

func (s *Server) record(tool string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := ""
	if err != nil {
		outcome = domain.ErrorCode(err)
	}
	s.metrics.RecordInterpretation("mcp", tool, outcome)
}

func (s *Server) recordPhenoconversion(gene string) {
	if s.metrics != nil {
		s.metrics.RecordPhenoconversion(gene)
	}
}

func genotypeOutput(r *domain.GenotypeResult) GenotypeOutput {
	return GenotypeOutput{
		Gene:          r.Gene,
		Diplotype:     append([]string{}, r.Diplotype...),
		ActivityScore: r.ActivityScore,
		Phenotype:     string(r.Phenotype),
	}
}

func phenoconversionOutput(r *domain.PhenoconversionResult) PhenoconversionOutput {
	out := PhenoconversionOutput{
		BaselinePhenotype: string(r.BaselinePhenotype),
		AdjustedPhenotype: string(r.AdjustedPhenotype),
	}
	if r.Reason != nil {
		out.Reason = stringPtr(*r.Reason)
	}
	return out
}

func recommendationOutput(r *domain.Recommendation) RecommendationOutput {
	if !r.Found {
		return RecommendationOutput{Message: stringPtr(r.Message)}
	}
	return RecommendationOutput{
		Recommendation: stringPtr(r.Recommendation),
		Alternatives:   stringPtr(r.Alternatives),
		EvidenceLevel:  stringPtr(r.EvidenceLevel),
		Source:         stringPtr(r.Source),
	}
}

func stringPtr(s string) *string {
	return &s
}
