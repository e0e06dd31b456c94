package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
	"github.com/pgx-interpreter-mcp-server/internal/seed"
	"github.com/pgx-interpreter-mcp-server/internal/store/memory"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing
	return logger
}

func newDefaultInterpreter(t *testing.T) *InterpreterService {
	t.Helper()
	store, err := memory.NewDefault()
	require.NoError(t, err)
	return NewInterpreter(store, domain.MatchStrict, quietLogger())
}

func TestInterpretFull_WorkedExample(t *testing.T) {
	interpreter := newDefaultInterpreter(t)

	result, err := interpreter.InterpretFull(context.Background(), &domain.InterpretationRequest{
		Gene:         "CYP2C19",
		Diplotype:    []string{"*1", "*2"},
		CurrentDrugs: []string{"Omeprazole"},
		PlannedDrug:  "Clopidogrel",
	})
	require.NoError(t, err)

	assert.Equal(t, "CYP2C19", result.Genetics.Gene)
	assert.Equal(t, []string{"*1", "*2"}, result.Genetics.Diplotype)
	assert.Equal(t, 1.0, result.Genetics.ActivityScore)
	assert.Equal(t, domain.IntermediateMetabolizer, result.Genetics.Phenotype)

	assert.Equal(t, domain.IntermediateMetabolizer, result.Phenoconversion.BaselinePhenotype)
	assert.Equal(t, domain.PoorMetabolizer, result.Phenoconversion.AdjustedPhenotype)
	require.NotNil(t, result.Phenoconversion.Reason)
	assert.Contains(t, *result.Phenoconversion.Reason, "Omeprazole")
	assert.Contains(t, *result.Phenoconversion.Reason, "CYP2C19")

	rec := result.Recommendation
	assert.True(t, rec.Found)
	assert.NotEmpty(t, rec.Recommendation)
	assert.NotEmpty(t, rec.Alternatives)
	assert.NotEmpty(t, rec.EvidenceLevel)
	assert.NotEmpty(t, rec.Source)
}

func TestInterpretFull_NoGuidance(t *testing.T) {
	interpreter := newDefaultInterpreter(t)

	result, err := interpreter.InterpretFull(context.Background(), &domain.InterpretationRequest{
		Gene:        "CYP2C19",
		Diplotype:   []string{"*1", "*1"},
		PlannedDrug: "Warfarin",
	})
	require.NoError(t, err)
	assert.False(t, result.Recommendation.Found)
	assert.Equal(t, domain.NoGuidanceMessage, result.Recommendation.Message)
	assert.Nil(t, result.Phenoconversion.Reason)
}

func TestInterpretFull_UnknownGeneStopsPipeline(t *testing.T) {
	store := new(MockReferenceStore)
	store.On("FindGeneBySymbol", mock.Anything, "ZZZ9").Return(nil, nil)

	interpreter := NewInterpreter(store, domain.MatchStrict, quietLogger())
	result, err := interpreter.InterpretFull(context.Background(), &domain.InterpretationRequest{
		Gene:        "ZZZ9",
		Diplotype:   []string{"*1", "*2"},
		PlannedDrug: "Clopidogrel",
	})

	assert.Nil(t, result)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, err.Error(), "ZZZ9")
	store.AssertNotCalled(t, "FindAlleleScore", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "FindPhenotypeRules", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "FindGuidelines", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInterpretFull_ValidatesBeforeLookups(t *testing.T) {
	tests := map[string]*domain.InterpretationRequest{
		"one allele":    {Gene: "CYP2C19", Diplotype: []string{"*1"}, PlannedDrug: "Clopidogrel"},
		"three alleles": {Gene: "CYP2C19", Diplotype: []string{"*1", "*2", "*3"}, PlannedDrug: "Clopidogrel"},
		"blank allele":  {Gene: "CYP2C19", Diplotype: []string{"*1", " "}, PlannedDrug: "Clopidogrel"},
		"blank drug":    {Gene: "CYP2C19", Diplotype: []string{"*1", "*2"}, CurrentDrugs: []string{""}, PlannedDrug: "Clopidogrel"},
		"no planned":    {Gene: "CYP2C19", Diplotype: []string{"*1", "*2"}},
	}

	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			store := new(MockReferenceStore)
			interpreter := NewInterpreter(store, domain.MatchStrict, quietLogger())

			_, err := interpreter.InterpretFull(context.Background(), req)
			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Empty(t, store.Calls)
		})
	}
}

func TestInterpretGenotype_ArityCheckedBeforeStoreAccess(t *testing.T) {
	store := new(MockReferenceStore)
	interpreter := NewInterpreter(store, domain.MatchStrict, quietLogger())

	for _, diplotype := range [][]string{nil, {}, {"*1"}, {"*1", "*2", "*17"}} {
		_, err := interpreter.InterpretGenotype(context.Background(), "CYP2C19", diplotype)
		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
	}
	assert.Empty(t, store.Calls)
}

func TestInterpretGenotype_ScoreIsSumOfAlleles(t *testing.T) {
	interpreter := newDefaultInterpreter(t)
	ctx := context.Background()

	tests := []struct {
		gene      string
		diplotype []string
		score     float64
		phenotype domain.Phenotype
	}{
		{"CYP2C19", []string{"*1", "*1"}, 2.0, domain.NormalMetabolizer},
		{"CYP2C19", []string{"*2", "*3"}, 0.0, domain.PoorMetabolizer},
		{"CYP2C19", []string{"*1", "*17"}, 2.5, domain.RapidMetabolizer},
		{"CYP2C19", []string{"*17", "*17"}, 3.0, domain.UltrarapidMetabolizer},
		{"CYP2D6", []string{"*1", "*10"}, 1.25, domain.NormalMetabolizer},
		{"CYP2D6", []string{"*4", "*41"}, 0.5, domain.IntermediateMetabolizer},
		{"CYP2D6", []string{"*1x2", "*1"}, 3.0, domain.UltrarapidMetabolizer},
		{"CYP2C9", []string{"*2", "*3"}, 0.5, domain.PoorMetabolizer},
	}

	for _, tt := range tests {
		t.Run(tt.gene+" "+tt.diplotype[0]+"/"+tt.diplotype[1], func(t *testing.T) {
			result, err := interpreter.InterpretGenotype(ctx, tt.gene, tt.diplotype)
			require.NoError(t, err)
			assert.InDelta(t, tt.score, result.ActivityScore, 1e-9)
			assert.Equal(t, tt.phenotype, result.Phenotype)
		})
	}
}

func TestInterpretGenotype_UnknownAllele(t *testing.T) {
	interpreter := newDefaultInterpreter(t)

	_, err := interpreter.InterpretGenotype(context.Background(), "CYP2C19", []string{"*1", "*99"})
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "allele *99 not found for gene CYP2C19", err.Error())
}

func TestInterpretGenotype_NoMatchingRule(t *testing.T) {
	ds := &seed.Dataset{Version: 1, Genes: []seed.GeneSeed{{
		Symbol:         "CYP2C19",
		Alleles:        []seed.AlleleSeed{{Name: "*1", ActivityScore: 1}, {Name: "*9", ActivityScore: 0.25}},
		PhenotypeRules: []seed.RuleSeed{{Phenotype: "NM", MinScore: 2, MaxScore: 2}},
	}}}
	gapped := NewInterpreter(memory.New(ds), domain.MatchStrict, quietLogger())

	_, err := gapped.InterpretGenotype(context.Background(), "CYP2C19", []string{"*1", "*9"})
	var noMatch *domain.NoMatchError
	require.ErrorAs(t, err, &noMatch)
	assert.Equal(t, 1.25, noMatch.Score)
}

func TestInterpretGenotype_Idempotent(t *testing.T) {
	interpreter := newDefaultInterpreter(t)
	ctx := context.Background()

	first, err := interpreter.InterpretGenotype(ctx, "CYP2D6", []string{"*1", "*4"})
	require.NoError(t, err)
	second, err := interpreter.InterpretGenotype(ctx, "CYP2D6", []string{"*1", "*4"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestInterpretGenotype_OverlappingRules(t *testing.T) {
	ds := &seed.Dataset{Version: 1, Genes: []seed.GeneSeed{{
		Symbol:  "CYP2C19",
		Alleles: []seed.AlleleSeed{{Name: "*1", ActivityScore: 0.5}},
		PhenotypeRules: []seed.RuleSeed{
			{Phenotype: "IM", MinScore: 0.5, MaxScore: 1.0},
			{Phenotype: "NM", MinScore: 1.0, MaxScore: 2.0},
		},
	}}}
	store := memory.New(ds)
	ctx := context.Background()

	strict := NewInterpreter(store, domain.MatchStrict, quietLogger())
	_, err := strict.InterpretGenotype(ctx, "CYP2C19", []string{"*1", "*1"})
	var ambiguous *domain.AmbiguousRuleError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, 2, ambiguous.Matches)

	first := NewInterpreter(store, domain.MatchFirst, quietLogger())
	result, err := first.InterpretGenotype(ctx, "CYP2C19", []string{"*1", "*1"})
	require.NoError(t, err)
	assert.Equal(t, domain.IntermediateMetabolizer, result.Phenotype)
}

func TestInterpretGenotype_StoreFailureIsRedacted(t *testing.T) {
	store := new(MockReferenceStore)
	store.On("FindGeneBySymbol", mock.Anything, "CYP2C19").
		Return(nil, errors.New("dial tcp 10.1.2.3:5432: connection refused"))

	interpreter := NewInterpreter(store, domain.MatchStrict, quietLogger())
	_, err := interpreter.InterpretGenotype(context.Background(), "CYP2C19", []string{"*1", "*2"})

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.NotContains(t, err.Error(), "10.1.2.3")
	assert.Equal(t, domain.ErrDatabaseError, domain.ErrorCode(err))
	store.AssertNumberOfCalls(t, "FindGeneBySymbol", 1)
}

func TestApplyPhenoconversion(t *testing.T) {
	interpreter := newDefaultInterpreter(t)
	ctx := context.Background()

	t.Run("no inhibitor keeps baseline", func(t *testing.T) {
		result, err := interpreter.ApplyPhenoconversion(ctx, "CYP2C19", domain.NormalMetabolizer, []string{"Pantoprazole", "Rifampin"})
		require.NoError(t, err)
		assert.Equal(t, domain.NormalMetabolizer, result.AdjustedPhenotype)
		assert.Nil(t, result.Reason)
	})

	t.Run("multiple inhibitors do not compound", func(t *testing.T) {
		result, err := interpreter.ApplyPhenoconversion(ctx, "CYP2C19", domain.NormalMetabolizer, []string{"Omeprazole", "Fluvoxamine", "Fluconazole"})
		require.NoError(t, err)
		assert.Equal(t, domain.IntermediateMetabolizer, result.AdjustedPhenotype)
		assert.Equal(t, "Omeprazole inhibits CYP2C19", *result.Reason)
	})

	t.Run("order changes cited drug only", func(t *testing.T) {
		a, err := interpreter.ApplyPhenoconversion(ctx, "CYP2C19", domain.IntermediateMetabolizer, []string{"Omeprazole", "Fluvoxamine"})
		require.NoError(t, err)
		b, err := interpreter.ApplyPhenoconversion(ctx, "CYP2C19", domain.IntermediateMetabolizer, []string{"Fluvoxamine", "Omeprazole"})
		require.NoError(t, err)

		assert.Equal(t, a.AdjustedPhenotype, b.AdjustedPhenotype)
		assert.Contains(t, *a.Reason, "Omeprazole")
		assert.Contains(t, *b.Reason, "Fluvoxamine")
	})

	t.Run("inhibitor of another gene is ignored", func(t *testing.T) {
		result, err := interpreter.ApplyPhenoconversion(ctx, "CYP2C19", domain.NormalMetabolizer, []string{"Paroxetine"})
		require.NoError(t, err)
		assert.Equal(t, domain.NormalMetabolizer, result.AdjustedPhenotype)
	})

	t.Run("poor metabolizer is invariant", func(t *testing.T) {
		result, err := interpreter.ApplyPhenoconversion(ctx, "CYP2D6", domain.PoorMetabolizer, []string{"Paroxetine"})
		require.NoError(t, err)
		assert.Equal(t, domain.PoorMetabolizer, result.AdjustedPhenotype)
	})

	t.Run("missing gene", func(t *testing.T) {
		_, err := interpreter.ApplyPhenoconversion(ctx, "", domain.NormalMetabolizer, nil)
		var validationErr *domain.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestGetRecommendation(t *testing.T) {
	interpreter := newDefaultInterpreter(t)
	ctx := context.Background()

	rec, err := interpreter.GetRecommendation(ctx, "CYP2D6", domain.UltrarapidMetabolizer, "Codeine")
	require.NoError(t, err)
	assert.True(t, rec.Found)
	assert.Equal(t, "CPIC", rec.Source)

	rec, err = interpreter.GetRecommendation(ctx, "CYP2D6", domain.RapidMetabolizer, "Codeine")
	require.NoError(t, err)
	assert.False(t, rec.Found)
	assert.Equal(t, domain.NoGuidanceMessage, rec.Message)

	_, err = interpreter.GetRecommendation(ctx, "CYP2D6", domain.PoorMetabolizer, " ")
	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestGetRecommendation_DuplicateGuidelines(t *testing.T) {
	entries := []domain.GuidelineEntry{
		{GeneSymbol: "CYP2C19", Phenotype: domain.PoorMetabolizer, DrugName: "Clopidogrel", RecommendationSummary: "first", Source: "CPIC"},
		{GeneSymbol: "CYP2C19", Phenotype: domain.PoorMetabolizer, DrugName: "Clopidogrel", RecommendationSummary: "second", Source: "DPWG"},
	}
	store := new(MockReferenceStore)
	store.On("FindGuidelines", mock.Anything, "CYP2C19", domain.PoorMetabolizer, "Clopidogrel").Return(entries, nil)
	ctx := context.Background()

	strict := NewInterpreter(store, domain.MatchStrict, quietLogger())
	_, err := strict.GetRecommendation(ctx, "CYP2C19", domain.PoorMetabolizer, "Clopidogrel")
	assert.Equal(t, domain.ErrAmbiguousRule, domain.ErrorCode(err))

	first := NewInterpreter(store, domain.MatchFirst, quietLogger())
	rec, err := first.GetRecommendation(ctx, "CYP2C19", domain.PoorMetabolizer, "Clopidogrel")
	require.NoError(t, err)
	assert.Equal(t, "first", rec.Recommendation)
}

func TestInterpretFull_Concurrent(t *testing.T) {
	interpreter := newDefaultInterpreter(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := &domain.InterpretationRequest{Gene: "CYP2C19", Diplotype: []string{"*1", "*2"}, PlannedDrug: "Clopidogrel"}
			want := domain.IntermediateMetabolizer
			if i%2 == 0 {
				req.CurrentDrugs = []string{"Omeprazole"}
				want = domain.PoorMetabolizer
			}
			result, err := interpreter.InterpretFull(ctx, req)
			if assert.NoError(t, err) {
				assert.Equal(t, want, result.Phenoconversion.AdjustedPhenotype)
			}
		}(i)
	}
	wg.Wait()
}
