package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// MockReferenceStore is a mock implementation of the ReferenceStore interface
type MockReferenceStore struct {
	mock.Mock
}

func (m *MockReferenceStore) FindGeneBySymbol(ctx context.Context, symbol string) (*domain.Gene, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Gene), args.Error(1)
}

func (m *MockReferenceStore) FindAlleleScore(ctx context.Context, geneID int64, alleleName string) (*domain.Allele, error) {
	args := m.Called(ctx, geneID, alleleName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Allele), args.Error(1)
}

func (m *MockReferenceStore) FindPhenotypeRules(ctx context.Context, geneID int64, score float64) ([]domain.PhenotypeRule, error) {
	args := m.Called(ctx, geneID, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PhenotypeRule), args.Error(1)
}

func (m *MockReferenceStore) FindDrugGeneEffects(ctx context.Context, drugName, geneSymbol string) ([]domain.DrugGeneEffect, error) {
	args := m.Called(ctx, drugName, geneSymbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DrugGeneEffect), args.Error(1)
}

func (m *MockReferenceStore) FindGuidelines(ctx context.Context, geneSymbol string, phenotype domain.Phenotype, drugName string) ([]domain.GuidelineEntry, error) {
	args := m.Called(ctx, geneSymbol, phenotype, drugName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GuidelineEntry), args.Error(1)
}
