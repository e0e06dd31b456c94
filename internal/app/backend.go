// Package app wires configuration, reference stores and the interpreter for the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/config"
	"github.com/pgx-interpreter-mcp-server/internal/database"
	"github.com/pgx-interpreter-mcp-server/internal/domain"
	"github.com/pgx-interpreter-mcp-server/internal/seed"
	"github.com/pgx-interpreter-mcp-server/internal/service"
	"github.com/pgx-interpreter-mcp-server/internal/store/memory"
	"github.com/pgx-interpreter-mcp-server/internal/store/postgres"
	"github.com/pgx-interpreter-mcp-server/internal/store/resilient"
	"github.com/pgx-interpreter-mcp-server/internal/store/sqlite"
)

// Seeder is a store that can be populated from a dataset.
type Seeder interface {
	IsEmpty(ctx context.Context) (bool, error)
	Seed(ctx context.Context, ds *seed.Dataset) error
}

// Backend is an opened reference store and the resources behind it.
type Backend struct {
	Store  domain.ReferenceStore
	Health domain.HealthChecker
	Driver string

	seeder  Seeder
	closers []func()
}

// Seeder returns the underlying seedable store, or nil for the memory driver.
func (b *Backend) Seeder() Seeder {
	return b.seeder
}

// Close releases every resource the backend opened, in reverse order.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// OpenBackend opens the store selected by the configuration. SQL stores are migrated
// (postgres with auto_migrate) and seeded when empty; every store is wrapped in the
// resilient decorator.
func OpenBackend(ctx context.Context, cm domain.ConfigManager, logger *logrus.Logger) (*Backend, error) {
	cfg := cm.GetConfig()
	b := &Backend{Driver: cfg.Store.Driver}

	var inner domain.ReferenceStore
	switch cfg.Store.Driver {
	case "postgres", "sqlite":
		store, closeStore, err := openSQLStore(ctx, cm, logger)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, closeStore)
		inner, b.seeder = store, store

	case "memory":
		ds, err := seed.Load(cfg.Seed.File)
		if err != nil {
			return nil, err
		}
		if err := ds.Validate(); err != nil {
			return nil, fmt.Errorf("invalid dataset: %w", err)
		}
		inner = memory.New(ds)

	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	if b.seeder != nil {
		if _, err := SeedIfEmpty(ctx, b.seeder, cfg.Seed.File, logger); err != nil {
			b.Close()
			return nil, err
		}
	}

	wrapped := resilient.New(inner, cfg.Store, logger)
	b.Store, b.Health = wrapped, wrapped

	logger.WithFields(logrus.Fields{
		"driver":        cfg.Store.Driver,
		"breaker":       wrapped.BreakerState(),
		"cache_entries": cfg.Store.Cache.Size,
	}).Info("Reference store ready")

	return b, nil
}

// SQLStore is a reference store backed by a SQL database.
type SQLStore interface {
	domain.ReferenceStore
	Seeder
}

// OpenSeeder opens the configured SQL store without seeding it. The returned func
// releases it.
func OpenSeeder(ctx context.Context, cm domain.ConfigManager, logger *logrus.Logger) (Seeder, func(), error) {
	store, closeStore, err := openSQLStore(ctx, cm, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, closeStore, nil
}

func openSQLStore(ctx context.Context, cm domain.ConfigManager, logger *logrus.Logger) (SQLStore, func(), error) {
	cfg := cm.GetConfig()
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Database.AutoMigrate {
			if err := Migrate(ctx, cm.GetDatabaseURL(), logger); err != nil {
				return nil, nil, err
			}
		}
		db, err := database.NewConnection(ctx, database.ConfigFrom(cfg.Database), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to reference database: %w", err)
		}
		return postgres.NewStore(db.Pool, logger), db.Close, nil

	case "sqlite":
		store, err := sqlite.Open(cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite reference store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("store driver %s has no SQL database", cfg.Store.Driver)
	}
}

// OpenLiteBackend opens the SQLite reference database under the lite data directory,
// seeding it on first use. The store is wrapped like the one from OpenBackend.
func OpenLiteBackend(ctx context.Context, cfg *config.LiteConfig, logger *logrus.Logger) (*Backend, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	storeCfg := cfg.Store()
	store, err := sqlite.Open(storeCfg.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite reference store: %w", err)
	}

	b := &Backend{
		Driver:  storeCfg.Driver,
		seeder:  store,
		closers: []func(){func() { _ = store.Close() }},
	}
	if _, err := SeedIfEmpty(ctx, store, cfg.SeedFile, logger); err != nil {
		b.Close()
		return nil, err
	}

	wrapped := resilient.New(store, storeCfg, logger)
	b.Store, b.Health = wrapped, wrapped
	return b, nil
}

// SeedIfEmpty loads the dataset at file (the embedded dataset when empty) into s when s
// holds no genes. It reports whether seeding happened.
func SeedIfEmpty(ctx context.Context, s Seeder, file string, logger *logrus.Logger) (bool, error) {
	empty, err := s.IsEmpty(ctx)
	if err != nil {
		return false, fmt.Errorf("checking reference store: %w", err)
	}
	if !empty {
		return false, nil
	}

	ds, err := seed.Load(file)
	if err != nil {
		return false, err
	}
	if err := s.Seed(ctx, ds); err != nil {
		return false, fmt.Errorf("seeding reference store: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"genes":      len(ds.Genes),
		"guidelines": len(ds.Guidelines),
		"file":       file,
	}).Info("Seeded empty reference store")
	return true, nil
}

// Migrate applies every pending reference schema migration.
func Migrate(ctx context.Context, databaseURL string, logger *logrus.Logger) error {
	runner, err := database.NewMigrationRunner(databaseURL, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	if err := runner.Up(ctx); err != nil {
		return fmt.Errorf("migrating reference schema: %w", err)
	}
	return nil
}

// NewInterpreter builds the interpretation service over store with the given match policy.
func NewInterpreter(store domain.ReferenceStore, policy string, logger *logrus.Logger) (*service.InterpreterService, error) {
	p, err := domain.ParseMatchPolicy(policy)
	if err != nil {
		return nil, err
	}
	return service.NewInterpreter(store, p, logger), nil
}
