package domain

import (
	"context"
)

// ReferenceStore is read-only access to pharmacogenomic reference data.
// Single-row lookups return (nil, nil) when nothing matches; list lookups return an
// empty slice. Implementations must be safe for concurrent use.
type ReferenceStore interface {
	FindGeneBySymbol(ctx context.Context, symbol string) (*Gene, error)
	FindAlleleScore(ctx context.Context, geneID int64, alleleName string) (*Allele, error)
	// FindPhenotypeRules returns the gene's rules whose interval contains score.
	FindPhenotypeRules(ctx context.Context, geneID int64, score float64) ([]PhenotypeRule, error)
	FindDrugGeneEffects(ctx context.Context, drugName, geneSymbol string) ([]DrugGeneEffect, error)
	FindGuidelines(ctx context.Context, geneSymbol string, phenotype Phenotype, drugName string) ([]GuidelineEntry, error)
}

// HealthChecker is implemented by stores that can report connectivity.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Interpreter exposes the interpretation pipeline and its sub-pipelines to transports.
type Interpreter interface {
	InterpretGenotype(ctx context.Context, gene string, diplotype []string) (*GenotypeResult, error)
	ApplyPhenoconversion(ctx context.Context, gene string, baseline Phenotype, currentDrugs []string) (*PhenoconversionResult, error)
	GetRecommendation(ctx context.Context, gene string, phenotype Phenotype, drug string) (*Recommendation, error)
	InterpretFull(ctx context.Context, req *InterpretationRequest) (*InterpretationResult, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	GetStoreConfig() *StoreConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetDatabaseURL() string
	IsProduction() bool
	IsDevelopment() bool
}
