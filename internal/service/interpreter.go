package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// InterpreterService runs the pharmacogenomic interpretation pipeline:
// gene lookup, activity scoring, phenotype classification, phenoconversion and
// recommendation, strictly in that order. It holds no per-request state.
type InterpreterService struct {
	logger     *logrus.Logger
	registry   *GeneRegistry
	calculator *ActivityScoreCalculator
	classifier *PhenotypeClassifier
	engine     *PhenoconversionEngine
	resolver   *RecommendationResolver
}

// NewInterpreter creates a new interpreter service over store
func NewInterpreter(store domain.ReferenceStore, policy domain.MatchPolicy, logger *logrus.Logger) *InterpreterService {
	if logger == nil {
		logger = logrus.New()
	}
	if policy == "" {
		policy = domain.MatchStrict
	}
	return &InterpreterService{
		logger:     logger,
		registry:   NewGeneRegistry(store, logger),
		calculator: NewActivityScoreCalculator(store, logger),
		classifier: NewPhenotypeClassifier(store, policy, logger),
		engine:     NewPhenoconversionEngine(store, logger),
		resolver:   NewRecommendationResolver(store, policy, logger),
	}
}

var _ domain.Interpreter = (*InterpreterService)(nil)

// InterpretGenotype classifies a diplotype into a baseline phenotype.
func (s *InterpreterService) InterpretGenotype(ctx context.Context, gene string, diplotype []string) (*domain.GenotypeResult, error) {
	if err := ValidateDiplotype(diplotype); err != nil {
		return nil, err
	}
	return s.interpretGenotype(ctx, gene, diplotype)
}

func (s *InterpreterService) interpretGenotype(ctx context.Context, gene string, diplotype []string) (*domain.GenotypeResult, error) {
	// Step 1: Resolve the gene symbol
	resolved, err := s.registry.Resolve(ctx, gene)
	if err != nil {
		return nil, err
	}

	// Step 2: Sum allele activity scores
	score, err := s.calculator.Compute(ctx, resolved, diplotype)
	if err != nil {
		return nil, err
	}

	// Step 3: Map the score to a phenotype
	phenotype, err := s.classifier.Classify(ctx, resolved, score)
	if err != nil {
		return nil, err
	}

	return &domain.GenotypeResult{
		Gene:          strings.TrimSpace(gene),
		Diplotype:     append([]string(nil), diplotype...),
		ActivityScore: score,
		Phenotype:     phenotype,
	}, nil
}

// ApplyPhenoconversion adjusts baseline for the first inhibitor of gene in currentDrugs.
func (s *InterpreterService) ApplyPhenoconversion(ctx context.Context, gene string, baseline domain.Phenotype, currentDrugs []string) (*domain.PhenoconversionResult, error) {
	gene = strings.TrimSpace(gene)
	if gene == "" {
		return nil, domain.NewValidationError("gene", "gene symbol is required", gene)
	}
	if strings.TrimSpace(string(baseline)) == "" {
		return nil, domain.NewValidationError("baselinePhenotype", "baseline phenotype is required", baseline)
	}
	if err := ValidateDrugs("currentDrugs", currentDrugs); err != nil {
		return nil, err
	}
	return s.engine.Apply(ctx, gene, baseline, currentDrugs)
}

// GetRecommendation returns guidance for drug under phenotype, or the no-guidance result.
func (s *InterpreterService) GetRecommendation(ctx context.Context, gene string, phenotype domain.Phenotype, drug string) (*domain.Recommendation, error) {
	gene = strings.TrimSpace(gene)
	drug = strings.TrimSpace(drug)
	if gene == "" {
		return nil, domain.NewValidationError("gene", "gene symbol is required", gene)
	}
	if strings.TrimSpace(string(phenotype)) == "" {
		return nil, domain.NewValidationError("phenotype", "phenotype is required", phenotype)
	}
	if drug == "" {
		return nil, domain.NewValidationError("drug", "drug name is required", drug)
	}
	return s.resolver.Resolve(ctx, gene, phenotype, drug)
}

// InterpretFull runs every stage and aggregates the results. Any stage failure
// short-circuits the rest and no partial result is returned.
func (s *InterpreterService) InterpretFull(ctx context.Context, req *domain.InterpretationRequest) (*domain.InterpretationResult, error) {
	startTime := time.Now()

	if req == nil {
		return nil, domain.NewValidationError("request", "request is required", nil)
	}
	if err := ValidateDiplotype(req.Diplotype); err != nil {
		return nil, err
	}
	if err := ValidateDrugs("currentDrugs", req.CurrentDrugs); err != nil {
		return nil, err
	}
	plannedDrug := strings.TrimSpace(req.PlannedDrug)
	if plannedDrug == "" {
		return nil, domain.NewValidationError("plannedDrug", "planned drug is required", req.PlannedDrug)
	}

	s.logger.WithFields(logrus.Fields{
		"gene_symbol":  req.Gene,
		"diplotype":    strings.Join(req.Diplotype, "/"),
		"drug_count":   len(req.CurrentDrugs),
		"planned_drug": plannedDrug,
	}).Info("Starting full interpretation")

	genetics, err := s.interpretGenotype(ctx, req.Gene, req.Diplotype)
	if err != nil {
		return nil, err
	}

	phenoconversion, err := s.engine.Apply(ctx, genetics.Gene, genetics.Phenotype, req.CurrentDrugs)
	if err != nil {
		return nil, err
	}

	recommendation, err := s.resolver.Resolve(ctx, genetics.Gene, phenoconversion.AdjustedPhenotype, plannedDrug)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"gene_symbol":        genetics.Gene,
		"activity_score":     genetics.ActivityScore,
		"baseline_phenotype": phenoconversion.BaselinePhenotype,
		"adjusted_phenotype": phenoconversion.AdjustedPhenotype,
		"guidance_found":     recommendation.Found,
		"processing_time":    time.Since(startTime),
	}).Info("Full interpretation completed")

	return &domain.InterpretationResult{
		Genetics:        *genetics,
		Phenoconversion: *phenoconversion,
		Recommendation:  *recommendation,
	}, nil
}
