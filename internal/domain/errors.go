package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrNotFoundCode   = "NOT_FOUND"
	ErrNoMatch        = "NO_MATCH"
	ErrAmbiguousRule  = "AMBIGUOUS_RULE"
	ErrDatabaseError  = "DATABASE_ERROR"
	ErrRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
)

// ErrNotFound is matched by every NotFoundError via errors.Is.
var ErrNotFound = errors.New("not found")

// storeErrorMessage is the only text a caller sees for a store failure.
const storeErrorMessage = "reference data lookup failed"

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NotFoundError reports an unknown gene symbol or allele name.
type NotFoundError struct {
	Kind string // "gene" or "allele"
	Key  string
	Gene string // owning gene symbol for alleles
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Kind == "allele" {
		return fmt.Sprintf("allele %s not found for gene %s", e.Key, e.Gene)
	}
	return fmt.Sprintf("unknown gene symbol: %s", e.Key)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NoMatchError reports an activity score no phenotype rule covers.
type NoMatchError struct {
	Gene  string
	Score float64
}

// Error implements the error interface
func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no phenotype rule matched for gene %s and score %s", e.Gene, FormatScore(e.Score))
}

// AmbiguousRuleError reports reference data that matched more than one row where one is expected.
type AmbiguousRuleError struct {
	Kind    string // "phenotype rule" or "guideline"
	Gene    string
	Key     string
	Matches int
}

// Error implements the error interface
func (e *AmbiguousRuleError) Error() string {
	return fmt.Sprintf("ambiguous %s for gene %s and %s: %d rows matched", e.Kind, e.Gene, e.Key, e.Matches)
}

// StoreError wraps a reference store failure. Its message never includes the cause.
type StoreError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	return storeErrorMessage
}

// Unwrap exposes the cause for server-side logging.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the stable code for err, or ErrInternalServer for unknown errors.
func ErrorCode(err error) string {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		noMatch    *NoMatchError
		ambiguous  *AmbiguousRuleError
		store      *StoreError
	)
	switch {
	case errors.As(err, &validation):
		return ErrInvalidInput
	case errors.As(err, &notFound):
		return ErrNotFoundCode
	case errors.As(err, &noMatch):
		return ErrNoMatch
	case errors.As(err, &ambiguous):
		return ErrAmbiguousRule
	case errors.As(err, &store):
		return ErrDatabaseError
	default:
		return ErrInternalServer
	}
}

// FormatScore renders an activity score without trailing zeros.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
