// Package resilient decorates a reference store with a circuit breaker and an
// optional read-through cache of reference rows.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// ErrCircuitOpen is returned while the breaker rejects lookups.
var ErrCircuitOpen = errors.New("reference store circuit open")

// Store wraps a ReferenceStore. Both decorators are optional; with neither enabled
// it forwards every call unchanged.
type Store struct {
	inner   domain.ReferenceStore
	breaker *gobreaker.CircuitBreaker
	cache   *expirable.LRU[cacheKey, any]
	logger  *logrus.Logger
}

var _ domain.ReferenceStore = (*Store)(nil)

// New wraps inner according to the breaker and cache settings of cfg.
func New(inner domain.ReferenceStore, cfg domain.StoreConfig, logger *logrus.Logger) *Store {
	s := &Store{inner: inner, logger: logger}

	if cfg.Breaker.Enabled {
		minRequests := cfg.Breaker.MinRequests
		threshold := cfg.Breaker.FailureThreshold
		if minRequests == 0 {
			minRequests = 3
		}
		if threshold <= 0 {
			threshold = 0.6
		}
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "reference-store",
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= minRequests && failureRatio >= threshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("Circuit breaker state changed")
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		})
	}

	if cfg.Cache.Size > 0 {
		ttl := cfg.Cache.TTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		s.cache = expirable.NewLRU[cacheKey, any](cfg.Cache.Size, nil, ttl)
	}

	return s
}

// BreakerState reports the breaker state, or "disabled".
func (s *Store) BreakerState() string {
	if s.breaker == nil {
		return "disabled"
	}
	return s.breaker.State().String()
}

// CacheLen returns the number of cached lookups.
func (s *Store) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// cacheKey identifies one lookup. Unused fields stay zero.
type cacheKey struct {
	op        string
	geneID    int64
	gene      string
	allele    string
	score     string
	drug      string
	phenotype domain.Phenotype
}

func lookup[T any](s *Store, key cacheKey, fn func() (T, error)) (T, error) {
	var zero T
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.(T), nil
		}
	}

	var result T
	if s.breaker == nil {
		v, err := fn()
		if err != nil {
			return zero, err
		}
		result = v
	} else {
		v, err := s.breaker.Execute(func() (interface{}, error) {
			return fn()
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return zero, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
			}
			return zero, err
		}
		result = v.(T)
	}

	if s.cache != nil {
		s.cache.Add(key, result)
	}
	return result, nil
}

// FindGeneBySymbol forwards to the wrapped store.
func (s *Store) FindGeneBySymbol(ctx context.Context, symbol string) (*domain.Gene, error) {
	return lookup(s, cacheKey{op: "gene", gene: symbol}, func() (*domain.Gene, error) {
		return s.inner.FindGeneBySymbol(ctx, symbol)
	})
}

// FindAlleleScore forwards to the wrapped store.
func (s *Store) FindAlleleScore(ctx context.Context, geneID int64, alleleName string) (*domain.Allele, error) {
	key := cacheKey{op: "allele", geneID: geneID, allele: alleleName}
	return lookup(s, key, func() (*domain.Allele, error) {
		return s.inner.FindAlleleScore(ctx, geneID, alleleName)
	})
}

// FindPhenotypeRules forwards to the wrapped store.
func (s *Store) FindPhenotypeRules(ctx context.Context, geneID int64, score float64) ([]domain.PhenotypeRule, error) {
	key := cacheKey{op: "rules", geneID: geneID, score: domain.FormatScore(score)}
	return lookup(s, key, func() ([]domain.PhenotypeRule, error) {
		return s.inner.FindPhenotypeRules(ctx, geneID, score)
	})
}

// FindDrugGeneEffects forwards to the wrapped store.
func (s *Store) FindDrugGeneEffects(ctx context.Context, drugName, geneSymbol string) ([]domain.DrugGeneEffect, error) {
	key := cacheKey{op: "effects", drug: drugName, gene: geneSymbol}
	return lookup(s, key, func() ([]domain.DrugGeneEffect, error) {
		return s.inner.FindDrugGeneEffects(ctx, drugName, geneSymbol)
	})
}

// FindGuidelines forwards to the wrapped store.
func (s *Store) FindGuidelines(ctx context.Context, geneSymbol string, phenotype domain.Phenotype, drugName string) ([]domain.GuidelineEntry, error) {
	key := cacheKey{op: "guidelines", gene: geneSymbol, phenotype: phenotype, drug: drugName}
	return lookup(s, key, func() ([]domain.GuidelineEntry, error) {
		return s.inner.FindGuidelines(ctx, geneSymbol, phenotype, drugName)
	})
}

// Health checks the wrapped store when it supports health checks. An open breaker
// reports unhealthy without touching the store.
func (s *Store) Health(ctx context.Context) error {
	if s.breaker != nil && s.breaker.State() == gobreaker.StateOpen {
		return ErrCircuitOpen
	}
	if hc, ok := s.inner.(domain.HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}
