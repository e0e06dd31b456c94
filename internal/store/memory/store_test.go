package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
	"github.com/pgx-interpreter-mcp-server/internal/seed"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewDefault()
	require.NoError(t, err)
	return store
}

func TestStore_FindGeneBySymbol(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	gene, err := store.FindGeneBySymbol(ctx, "CYP2C19")
	require.NoError(t, err)
	require.NotNil(t, gene)
	assert.Equal(t, "CYP2C19", gene.Symbol)
	assert.Equal(t, int64(1), gene.ID)

	missing, err := store.FindGeneBySymbol(ctx, "ZZZ9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_FindAlleleScore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	gene, err := store.FindGeneBySymbol(ctx, "CYP2C19")
	require.NoError(t, err)

	allele, err := store.FindAlleleScore(ctx, gene.ID, "*17")
	require.NoError(t, err)
	require.NotNil(t, allele)
	assert.Equal(t, 1.5, allele.ActivityScore)

	// Allele names are scoped to their gene.
	other, err := store.FindGeneBySymbol(ctx, "CYP2D6")
	require.NoError(t, err)
	allele, err = store.FindAlleleScore(ctx, other.ID, "*17")
	require.NoError(t, err)
	assert.Equal(t, 0.5, allele.ActivityScore)

	missing, err := store.FindAlleleScore(ctx, gene.ID, "*99")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_FindPhenotypeRules(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	gene, err := store.FindGeneBySymbol(ctx, "CYP2C19")
	require.NoError(t, err)

	rules, err := store.FindPhenotypeRules(ctx, gene.ID, 1.0)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, domain.IntermediateMetabolizer, rules[0].Phenotype)

	rules, err = store.FindPhenotypeRules(ctx, gene.ID, 0.25)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestStore_KeepsOverlappingRulesInOrder(t *testing.T) {
	store := New(&seed.Dataset{Version: 1, Genes: []seed.GeneSeed{{
		Symbol: "CYP2C19",
		PhenotypeRules: []seed.RuleSeed{
			{Phenotype: "IM", MinScore: 0.5, MaxScore: 1.0},
			{Phenotype: "NM", MinScore: 1.0, MaxScore: 2.0},
		},
	}}})

	rules, err := store.FindPhenotypeRules(context.Background(), 1, 1.0)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, domain.IntermediateMetabolizer, rules[0].Phenotype)
	assert.Equal(t, domain.NormalMetabolizer, rules[1].Phenotype)
}

func TestStore_FindDrugGeneEffects(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	effects, err := store.FindDrugGeneEffects(ctx, "Omeprazole", "CYP2C19")
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, domain.EffectInhibitor, effects[0].Effect)

	effects, err = store.FindDrugGeneEffects(ctx, "Omeprazole", "CYP2D6")
	require.NoError(t, err)
	assert.Empty(t, effects)
}

func TestStore_FindGuidelines(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries, err := store.FindGuidelines(ctx, "CYP2C19", domain.PoorMetabolizer, "Clopidogrel")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CPIC", entries[0].Source)
	assert.NotEmpty(t, entries[0].RecommendationSummary)

	// Returned slices are copies.
	entries[0].Source = "mutated"
	again, err := store.FindGuidelines(ctx, "CYP2C19", domain.PoorMetabolizer, "Clopidogrel")
	require.NoError(t, err)
	assert.Equal(t, "CPIC", again[0].Source)
}

func TestStore_ConcurrentReads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gene, err := store.FindGeneBySymbol(ctx, "CYP2D6")
			assert.NoError(t, err)
			_, err = store.FindPhenotypeRules(ctx, gene.ID, 2.0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
