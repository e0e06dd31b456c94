package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordHTTPRequest(t *testing.T) {
	c := NewCollector("pgx")

	c.RecordHTTPRequest("POST", "/api/interpret/full", "200", 15*time.Millisecond)
	c.RecordHTTPRequest("POST", "/api/interpret/full", "200", 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("POST", "/api/interpret/full", "200")))
}

func TestCollector_RecordInterpretation(t *testing.T) {
	c := NewCollector("pgx")

	c.RecordInterpretation("http", "interpret_full", "")
	c.RecordInterpretation("mcp", "interpret_genotype", "NOT_FOUND")
	c.RecordPhenoconversion("CYP2C19")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Interpretations.WithLabelValues("http", "interpret_full", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Interpretations.WithLabelValues("mcp", "interpret_genotype", "NOT_FOUND")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Phenoconversions.WithLabelValues("CYP2C19")))
}

func TestCollector_IndependentRegistries(t *testing.T) {
	a := NewCollector("pgx")
	b := NewCollector("pgx")

	a.RecordPhenoconversion("CYP2D6")

	assert.Equal(t, 0.0, testutil.ToFloat64(b.Phenoconversions.WithLabelValues("CYP2D6")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("pgx")
	c.RecordInterpretation("http", "interpret_genotype", "")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pgx_interpretations_total{operation="interpret_genotype",outcome="OK",transport="http"} 1`)
}
