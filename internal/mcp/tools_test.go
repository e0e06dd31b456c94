package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
	"github.com/pgx-interpreter-mcp-server/internal/metrics"
	"github.com/pgx-interpreter-mcp-server/internal/service"
	"github.com/pgx-interpreter-mcp-server/internal/store/memory"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func newTestServer(t *testing.T) (*Server, *metrics.Collector) {
	t.Helper()
	store, err := memory.NewDefault()
	require.NoError(t, err)

	collector := metrics.NewCollector("pgx")
	interpreter := service.NewInterpreter(store, domain.MatchStrict, quietLogger())
	return NewServer(interpreter, WithLogger(quietLogger()), WithMetrics(collector)), collector
}

// failingInterpreter returns err from every operation.
type failingInterpreter struct {
	err error
}

func (f failingInterpreter) InterpretGenotype(context.Context, string, []string) (*domain.GenotypeResult, error) {
	return nil, f.err
}

func (f failingInterpreter) ApplyPhenoconversion(context.Context, string, domain.Phenotype, []string) (*domain.PhenoconversionResult, error) {
	return nil, f.err
}

func (f failingInterpreter) GetRecommendation(context.Context, string, domain.Phenotype, string) (*domain.Recommendation, error) {
	return nil, f.err
}

func (f failingInterpreter) InterpretFull(context.Context, *domain.InterpretationRequest) (*domain.InterpretationResult, error) {
	return nil, f.err
}

func TestInterpretFull(t *testing.T) {
	server, collector := newTestServer(t)

	_, output, err := server.handleInterpretFull(context.Background(), nil, InterpretFullInput{
		Gene:         "CYP2C19",
		Diplotype:    []string{"*1", "*2"},
		CurrentDrugs: []string{"Omeprazole"},
		PlannedDrug:  "Clopidogrel",
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, output.Genetics.ActivityScore)
	assert.Equal(t, "IM", output.Genetics.Phenotype)
	assert.Equal(t, "IM", output.Phenoconversion.BaselinePhenotype)
	assert.Equal(t, "PM", output.Phenoconversion.AdjustedPhenotype)
	require.NotNil(t, output.Phenoconversion.Reason)
	assert.Equal(t, "Omeprazole inhibits CYP2C19", *output.Phenoconversion.Reason)
	require.NotNil(t, output.Recommendation.Source)
	assert.Equal(t, "CPIC", *output.Recommendation.Source)
	assert.Nil(t, output.Recommendation.Message)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Interpretations.WithLabelValues("mcp", toolInterpretFull, "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Phenoconversions.WithLabelValues("CYP2C19")))
}

func TestInterpretGenotype(t *testing.T) {
	server, _ := newTestServer(t)

	_, output, err := server.handleInterpretGenotype(context.Background(), nil, InterpretGenotypeInput{
		Gene:      "CYP2D6",
		Diplotype: []string{"*1", "*1x2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, output.ActivityScore)
	assert.Equal(t, "UM", output.Phenotype)
	assert.Equal(t, []string{"*1", "*1x2"}, output.Diplotype)
}

func TestInterpretGenotype_UnknownGene(t *testing.T) {
	server, collector := newTestServer(t)

	_, _, err := server.handleInterpretGenotype(context.Background(), nil, InterpretGenotypeInput{
		Gene:      "ZZZ9",
		Diplotype: []string{"*1", "*2"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "ZZZ9")
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Interpretations.WithLabelValues("mcp", toolInterpretGenotype, domain.ErrNotFoundCode)))
}

func TestApplyPhenoconversion_NoInhibitor(t *testing.T) {
	server, collector := newTestServer(t)

	_, output, err := server.handleApplyPhenoconversion(context.Background(), nil, ApplyPhenoconversionInput{
		Gene:         "CYP2C19",
		Phenotype:    "NM",
		CurrentDrugs: []string{"Pantoprazole", "Rifampin"},
	})
	require.NoError(t, err)
	assert.Equal(t, "NM", output.AdjustedPhenotype)
	assert.Nil(t, output.Reason)

	data, err := json.Marshal(output)
	require.NoError(t, err)
	assert.JSONEq(t, `{"baselinePhenotype":"NM","adjustedPhenotype":"NM","reason":null}`, string(data))
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.Phenoconversions.WithLabelValues("CYP2C19")))
}

func TestGetRecommendation_NoGuidance(t *testing.T) {
	server, _ := newTestServer(t)

	_, output, err := server.handleGetRecommendation(context.Background(), nil, GetRecommendationInput{
		Gene:      "CYP2D6",
		Phenotype: "IM",
		Drug:      "Clopidogrel",
	})
	require.NoError(t, err)
	require.NotNil(t, output.Message)
	assert.Equal(t, domain.NoGuidanceMessage, *output.Message)
	assert.Nil(t, output.Recommendation)

	assert.Equal(t, []string{"message"}, jsonKeys(t, output))
}

func jsonKeys(t *testing.T, v any) []string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestGetRecommendation_GuidanceShape(t *testing.T) {
	server, _ := newTestServer(t)

	_, output, err := server.handleGetRecommendation(context.Background(), nil, GetRecommendationInput{
		Gene:      "CYP2C19",
		Phenotype: "PM",
		Drug:      "Clopidogrel",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alternatives", "evidenceLevel", "recommendation", "source"}, jsonKeys(t, output))
}

func TestRecommendationOutput_KeepsEmptyGuidanceFields(t *testing.T) {
	output := recommendationOutput(domain.NewGuidance(domain.GuidelineEntry{
		RecommendationSummary: "Use standard dose",
		Source:                "CPIC",
	}))

	data, err := json.Marshal(output)
	require.NoError(t, err)
	assert.JSONEq(t, `{"recommendation":"Use standard dose","alternatives":"","evidenceLevel":"","source":"CPIC"}`, string(data))

	// The MCP shape matches the HTTP shape of the same recommendation.
	httpShape, err := json.Marshal(domain.NewGuidance(domain.GuidelineEntry{
		RecommendationSummary: "Use standard dose",
		Source:                "CPIC",
	}))
	require.NoError(t, err)
	assert.JSONEq(t, string(httpShape), string(data))
}

func TestInterpretFull_RecommendationKeys(t *testing.T) {
	server, _ := newTestServer(t)

	_, output, err := server.handleInterpretFull(context.Background(), nil, InterpretFullInput{
		Gene:        "CYP2C19",
		Diplotype:   []string{"*2", "*2"},
		PlannedDrug: "Clopidogrel",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"genetics", "phenoconversion", "recommendation"}, jsonKeys(t, output))
	assert.Equal(t, []string{"alternatives", "evidenceLevel", "recommendation", "source"}, jsonKeys(t, output.Recommendation))
}

func TestToolError_HidesUnclassifiedErrors(t *testing.T) {
	server := NewServer(failingInterpreter{err: errors.New("pq: relation genes does not exist")}, WithLogger(quietLogger()))

	_, _, err := server.handleInterpretFull(context.Background(), nil, InterpretFullInput{})
	require.Error(t, err)
	assert.Equal(t, errInternal, err)
}

func TestToolError_KeepsDomainErrors(t *testing.T) {
	validation := domain.NewValidationError("diplotype", "must contain exactly 2 alleles", 1)
	server := NewServer(failingInterpreter{err: validation}, WithLogger(quietLogger()))

	_, _, err := server.handleInterpretGenotype(context.Background(), nil, InterpretGenotypeInput{})
	assert.Equal(t, validation, err)
}

func TestServerOverInMemoryTransport(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	clientTransport, serverTransport := sdk.NewInMemoryTransports()
	serverSession, err := server.mcp.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{toolInterpretGenotype, toolApplyPhenoconversion, toolGetRecommendation, toolInterpretFull}, names)

	res, err := session.CallTool(ctx, &sdk.CallToolParams{
		Name:      toolInterpretGenotype,
		Arguments: map[string]any{"gene": "CYP2C19", "diplotype": []string{"*1", "*17"}},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.NotEmpty(t, res.Content)

	res, err = session.CallTool(ctx, &sdk.CallToolParams{
		Name:      toolInterpretGenotype,
		Arguments: map[string]any{"gene": "CYP2C19", "diplotype": []string{"*1"}},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestWithImplementation(t *testing.T) {
	server := NewServer(failingInterpreter{}, WithImplementation("pgx-lite", ""))
	assert.Equal(t, "pgx-lite", server.name)
	assert.Equal(t, defaultServerVersion, server.version)
}

func TestServe_UnsupportedTransport(t *testing.T) {
	server := NewServer(failingInterpreter{}, WithLogger(quietLogger()))
	err := server.Serve(context.Background(), domain.MCPConfig{TransportType: "websocket"})
	assert.EqualError(t, err, "unsupported MCP transport: websocket")
}
