package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/bom/pkg/application/services/cached"
	"github.com/vsinha/bom/pkg/application/services/explosion"
	"github.com/vsinha/bom/pkg/application/services/formula"
	"github.com/vsinha/bom/pkg/application/services/masterdata"
	"github.com/vsinha/bom/pkg/application/services/whereused"
	"github.com/vsinha/bom/pkg/domain/repositories"
	"github.com/vsinha/bom/pkg/infrastructure/cache"
	"github.com/vsinha/bom/pkg/infrastructure/config"
	"github.com/vsinha/bom/pkg/infrastructure/database"
	"github.com/vsinha/bom/pkg/infrastructure/events"
	"github.com/vsinha/bom/pkg/infrastructure/logger"
	"github.com/vsinha/bom/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bom/pkg/infrastructure/repositories/gormrepo"
	"github.com/vsinha/bom/pkg/infrastructure/repositories/memory"
)

// redisKeyPrefix namespaces every cache entry this tool writes
const redisKeyPrefix = "bom:"

// Gateway is the full persistence surface the commands work against
type Gateway interface {
	repositories.BOMRepository
	repositories.ProductRepository
	repositories.UnitRepository
}

// Options selects where a runtime reads its data from
type Options struct {
	ConfigFile string
	// DataDir, when set, loads a CSV snapshot into memory instead of opening the database
	DataDir string
}

// Runtime holds the wired engines and services shared by every command
type Runtime struct {
	Config *config.Config
	Log    *logger.Logger
	Repo   Gateway
	Audit  *events.InMemoryEventStore

	Explorer   *cached.Explorer
	WhereUsed  *cached.WhereUsed
	Formulas   *formula.Service
	MasterData *masterdata.Service

	closers []func() error
}

// NewRuntime loads configuration, opens the data source and cache, and wires the services
func NewRuntime(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var (
		repo    Gateway
		closers []func() error
	)
	if opts.DataDir != "" {
		dataset, err := csv.NewLoader().LoadDir(opts.DataDir)
		if err != nil {
			return nil, err
		}
		mem := memory.NewRepository()
		if err := dataset.Seed(ctx, mem, mem, mem); err != nil {
			return nil, err
		}
		log.Info("loaded CSV snapshot", "dir", opts.DataDir, "formulas", len(dataset.Headers))
		repo = mem
	} else {
		db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() error { return database.Close(db) })
		log.Debug("database opened", "driver", cfg.DatabaseDriver)
		repo = gormrepo.NewRepository(db)
	}

	var store cache.Store
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			runClosers(closers)
			return nil, err
		}
		store = cache.NewRedisStore(rdb, redisKeyPrefix)
	} else {
		store = cache.NewMemoryStore()
	}
	closers = append(closers, store.Close)

	rt := NewRuntimeWith(cfg, log, repo, store)
	rt.closers = closers
	return rt, nil
}

// NewRuntimeWith wires services over an already opened gateway and cache
func NewRuntimeWith(cfg *config.Config, log *logger.Logger, repo Gateway, store cache.Store) *Runtime {
	log = logger.OrNop(log)

	audit := events.NewInMemoryEventStore(log)
	if err := audit.Subscribe(events.AllEventTypes, events.NewLoggingHandler(log)); err != nil {
		log.Warn("audit log handler not attached", "error", err)
	}

	explorer := explosion.NewEngine(repo, explosion.Config{MaxDepth: cfg.ExplosionMaxDepth}, log)
	finder := whereused.NewEngine(repo, whereused.Config{DefaultPageSize: cfg.DefaultPageSize}, log)

	return &Runtime{
		Config:     cfg,
		Log:        log,
		Repo:       repo,
		Audit:      audit,
		Explorer:   cached.NewExplorer(explorer, store, cfg.CacheTTL, log),
		WhereUsed:  cached.NewWhereUsed(finder, store, cfg.CacheTTL, log),
		Formulas:   formula.NewService(repo, repo, repo, audit, store, log),
		MasterData: masterdata.NewService(repo, repo, repo, audit, store, log),
	}
}

// Close releases the database and cache connections
func (r *Runtime) Close() error {
	err := runClosers(r.closers)
	r.Log.Sync()
	return err
}

func runClosers(closers []func() error) error {
	var firstErr error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
