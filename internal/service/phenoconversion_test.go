package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

func inhibitorSet(names ...string) InhibitorLookup {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(_ context.Context, drug string) (bool, error) {
		return set[drug], nil
	}
}

func TestScanForInhibitor_StopsAtFirstMatch(t *testing.T) {
	var examined []string
	lookup := func(_ context.Context, drug string) (bool, error) {
		examined = append(examined, drug)
		return drug == "Omeprazole" || drug == "Fluvoxamine", nil
	}

	match, err := ScanForInhibitor(context.Background(), "CYP2C19",
		[]string{"Pantoprazole", "Omeprazole", "Fluvoxamine", "Sertraline"}, lookup)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "Omeprazole", match.Drug)
	assert.Equal(t, []string{"Pantoprazole", "Omeprazole"}, examined)
}

func TestScanForInhibitor_NoMatch(t *testing.T) {
	match, err := ScanForInhibitor(context.Background(), "CYP2C19", []string{"Pantoprazole"}, inhibitorSet())
	require.NoError(t, err)
	assert.Nil(t, match)

	match, err = ScanForInhibitor(context.Background(), "CYP2C19", nil, inhibitorSet("Omeprazole"))
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestScanForInhibitor_PropagatesLookupError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ScanForInhibitor(context.Background(), "CYP2C19", []string{"Omeprazole"},
		func(context.Context, string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}

func TestAdjust_SingleStep(t *testing.T) {
	match := &InhibitorMatch{Drug: "Omeprazole", Gene: "CYP2C19"}

	tests := []struct {
		baseline domain.Phenotype
		want     domain.Phenotype
	}{
		{domain.NormalMetabolizer, domain.IntermediateMetabolizer},
		{domain.IntermediateMetabolizer, domain.PoorMetabolizer},
		{domain.PoorMetabolizer, domain.PoorMetabolizer},
		{domain.RapidMetabolizer, domain.RapidMetabolizer},
		{domain.UltrarapidMetabolizer, domain.UltrarapidMetabolizer},
	}

	for _, tt := range tests {
		t.Run(string(tt.baseline), func(t *testing.T) {
			result := Adjust(tt.baseline, match)
			assert.Equal(t, tt.baseline, result.BaselinePhenotype)
			assert.Equal(t, tt.want, result.AdjustedPhenotype)
			require.NotNil(t, result.Reason)
			assert.Equal(t, "Omeprazole inhibits CYP2C19", *result.Reason)
		})
	}
}

func TestAdjust_NoMatchKeepsBaseline(t *testing.T) {
	result := Adjust(domain.NormalMetabolizer, nil)
	assert.Equal(t, domain.NormalMetabolizer, result.AdjustedPhenotype)
	assert.Nil(t, result.Reason)
}

func TestPhenoconversionEngine_IgnoresNonInhibitors(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	ctx := context.Background()

	store := new(MockReferenceStore)
	store.On("FindDrugGeneEffects", mock.Anything, "Rifampin", "CYP2C19").Return([]domain.DrugGeneEffect{
		{DrugName: "Rifampin", GeneSymbol: "CYP2C19", Effect: domain.EffectInducer, Strength: "strong"},
	}, nil)
	store.On("FindDrugGeneEffects", mock.Anything, "Pantoprazole", "CYP2C19").Return([]domain.DrugGeneEffect{
		{DrugName: "Pantoprazole", GeneSymbol: "CYP2C19", Effect: domain.EffectNone},
	}, nil)

	engine := NewPhenoconversionEngine(store, logger)
	result, err := engine.Apply(ctx, "CYP2C19", domain.NormalMetabolizer, []string{"Rifampin", "Pantoprazole"})
	require.NoError(t, err)
	assert.Equal(t, domain.NormalMetabolizer, result.AdjustedPhenotype)
	assert.Nil(t, result.Reason)
	store.AssertExpectations(t)
}

func TestPhenoconversionEngine_StoreFailure(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	store := new(MockReferenceStore)
	store.On("FindDrugGeneEffects", mock.Anything, "Omeprazole", "CYP2C19").
		Return(nil, errors.New("pq: relation does not exist"))

	engine := NewPhenoconversionEngine(store, logger)
	_, err := engine.Apply(context.Background(), "CYP2C19", domain.NormalMetabolizer, []string{"Omeprazole"})

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.NotContains(t, err.Error(), "relation")
}

func TestValidateDrugs(t *testing.T) {
	assert.NoError(t, ValidateDrugs("currentDrugs", nil))
	assert.NoError(t, ValidateDrugs("currentDrugs", []string{}))
	assert.NoError(t, ValidateDrugs("currentDrugs", []string{"Omeprazole"}))

	err := ValidateDrugs("currentDrugs", []string{"Omeprazole", "  "})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "currentDrugs", validationErr.Field)
}
