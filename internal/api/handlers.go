package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
	"github.com/pgx-interpreter-mcp-server/internal/middleware"
)

// GenotypeRequest is the body of POST /api/interpret/genotype
type GenotypeRequest struct {
	Gene      string   `json:"gene"`
	Diplotype []string `json:"diplotype"`
}

// PhenoconversionRequest is the body of POST /api/interpret/phenoconversion
type PhenoconversionRequest struct {
	Gene         string   `json:"gene"`
	Phenotype    string   `json:"phenotype"`
	CurrentDrugs []string `json:"currentDrugs"`
}

// RecommendationRequest is the body of POST /api/interpret/recommendation
type RecommendationRequest struct {
	Gene      string `json:"gene"`
	Phenotype string `json:"phenotype"`
	Drug      string `json:"drug"`
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health.Health(c.Request.Context()); err != nil {
			s.logger.WithError(err).Warn("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ok":        false,
				"status":    "unhealthy",
				"error":     "reference store unavailable",
				"timestamp": time.Now().UTC(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleInterpretFull(c *gin.Context) {
	var req domain.InterpretationRequest
	if !s.bind(c, "interpret_full", &req) {
		return
	}

	result, err := s.interpreter.InterpretFull(c.Request.Context(), &req)
	if err != nil {
		s.respondError(c, "interpret_full", err)
		return
	}

	s.record("interpret_full", nil)
	if result.Phenoconversion.Reason != nil {
		s.recordPhenoconversion(result.Genetics.Gene)
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":              true,
		"genetics":        result.Genetics,
		"phenoconversion": result.Phenoconversion,
		"recommendation":  result.Recommendation,
	})
}

func (s *Server) handleInterpretGenotype(c *gin.Context) {
	var req GenotypeRequest
	if !s.bind(c, "interpret_genotype", &req) {
		return
	}

	result, err := s.interpreter.InterpretGenotype(c.Request.Context(), req.Gene, req.Diplotype)
	if err != nil {
		s.respondError(c, "interpret_genotype", err)
		return
	}

	s.record("interpret_genotype", nil)
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": result})
}

func (s *Server) handlePhenoconversion(c *gin.Context) {
	var req PhenoconversionRequest
	if !s.bind(c, "apply_phenoconversion", &req) {
		return
	}

	result, err := s.interpreter.ApplyPhenoconversion(c.Request.Context(), req.Gene, domain.Phenotype(req.Phenotype), req.CurrentDrugs)
	if err != nil {
		s.respondError(c, "apply_phenoconversion", err)
		return
	}

	s.record("apply_phenoconversion", nil)
	if result.Reason != nil {
		s.recordPhenoconversion(req.Gene)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": result})
}

func (s *Server) handleRecommendation(c *gin.Context) {
	var req RecommendationRequest
	if !s.bind(c, "get_recommendation", &req) {
		return
	}

	result, err := s.interpreter.GetRecommendation(c.Request.Context(), req.Gene, domain.Phenotype(req.Phenotype), req.Drug)
	if err != nil {
		s.respondError(c, "get_recommendation", err)
		return
	}

	s.record("get_recommendation", nil)
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": result})
}

func (s *Server) bind(c *gin.Context, operation string, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, operation, domain.NewValidationError("body", "request body must be a JSON object: "+err.Error(), nil))
		return false
	}
	return true
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		noMatchErr    *domain.NoMatchError
		ambiguousErr  *domain.AmbiguousRuleError
		storeErr      *domain.StoreError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &noMatchErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ambiguousErr):
		return http.StatusConflict
	case errors.As(err, &storeErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, operation string, err error) {
	status := statusFor(err)
	code := domain.ErrorCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}

	s.record(operation, err)
	s.logger.WithFields(logrus.Fields{
		"operation":      operation,
		"status":         status,
		"code":           code,
		"correlation_id": c.GetString(middleware.CorrelationIDKey),
	}).WithError(err).Info("Interpretation request failed")

	c.JSON(status, gin.H{
		"ok":             false,
		"error":          message,
		"code":           code,
		"correlation_id": c.GetString(middleware.CorrelationIDKey),
	})
}

func (s *Server) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := ""
	if err != nil {
		outcome = domain.ErrorCode(err)
	}
	s.metrics.RecordInterpretation("http", operation, outcome)
}

func (s *Server) recordPhenoconversion(gene string) {
	if s.metrics != nil {
		s.metrics.RecordPhenoconversion(gene)
	}
}
