package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wealth-query-agent/internal/ai/router"
	"github.com/wealth-query-agent/internal/cache"
	"github.com/wealth-query-agent/internal/config"
	"github.com/wealth-query-agent/internal/fetch"
	"github.com/wealth-query-agent/internal/filter"
	"github.com/wealth-query-agent/internal/format"
	"github.com/wealth-query-agent/internal/intent"
	"github.com/wealth-query-agent/internal/query"
	"github.com/wealth-query-agent/internal/server"
	"github.com/wealth-query-agent/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds every wired component of one process
type app struct {
	cfg          config.Config
	logger       *zap.Logger
	profiles     store.ProfileStore
	transactions store.TransactionStore
	classifier   *intent.Classifier
	processor    *query.Processor
	cache        *cache.L1Cache
	redis        *redis.Client
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// buildApp connects the stores and assembles the pipeline. Store connection
// failures are logged and leave that store unset; queries then use sample data.
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	provider, err := router.ParseProvider(cfg.AI.Provider)
	if err != nil {
		return nil, err
	}
	requestTimeout := cfg.AI.ClassifyTimeout
	if cfg.AI.SummaryTimeout > requestTimeout {
		requestTimeout = cfg.AI.SummaryTimeout
	}
	gen := router.New(router.Config{
		Provider:       provider,
		Model:          cfg.AI.Model,
		APIKey:         cfg.AI.APIKey,
		BaseURL:        cfg.AI.BaseURL,
		RequestTimeout: requestTimeout,
	}, logger)

	a.connectProfiles(ctx)
	a.connectTransactions(ctx)

	opts := []intent.Option{intent.WithTimeout(cfg.AI.ClassifyTimeout)}
	if cfg.Cache.Enabled {
		if cfg.Cache.RedisAddr != "" {
			a.redis = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		}
		a.cache, err = cache.NewL1Cache(cfg.Cache.MaxCost, cfg.Cache.TTL, "wealthquery:", a.redis, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create intent cache: %w", err)
		}
		opts = append(opts, intent.WithCache(a.cache))
	}

	a.classifier = intent.NewClassifier(gen, logger, opts...)
	a.processor = query.NewProcessor(
		a.classifier,
		filter.NewCompiler(0),
		fetch.New(a.profiles, a.transactions, logger),
		format.NewSummarizer(gen, cfg.AI.SummaryTimeout, logger),
		logger,
	)
	return a, nil
}

func (a *app) connectProfiles(ctx context.Context) {
	if a.cfg.Mongo.URI == "" {
		a.logger.Info("MongoDB not configured, serving sample profiles from memory")
		a.profiles = store.NewMemoryProfileStore(store.SampleProfiles())
		return
	}
	ms, err := store.NewMongoProfileStore(ctx, store.MongoConfig{
		URI:        a.cfg.Mongo.URI,
		Database:   a.cfg.Mongo.Database,
		Collection: a.cfg.Mongo.Collection,
		Timeout:    a.cfg.Mongo.Timeout,
	}, a.logger)
	if err != nil {
		a.logger.Warn("MongoDB unavailable, profile reads will use sample data", zap.Error(err))
		return
	}
	a.profiles = ms
}

func (a *app) connectTransactions(ctx context.Context) {
	ss, err := store.NewSQLTransactionStore(ctx, store.SQLConfig{
		Driver:  a.cfg.SQL.Driver,
		DSN:     a.cfg.SQL.DSN,
		Timeout: a.cfg.SQL.Timeout,
	}, a.logger)
	if err != nil {
		a.logger.Warn("Transaction store unavailable, transaction reads will use sample data", zap.Error(err))
		return
	}
	if err := ss.InitSchema(ctx); err != nil {
		a.logger.Warn("Transaction schema init failed", zap.Error(err))
		_ = ss.Close()
		return
	}
	// An empty in-memory database would only ever answer with nothing.
	if isMemoryDSN(a.cfg.SQL.DSN) {
		if _, err := ss.SeedIfEmpty(ctx, store.SampleTransactions()); err != nil {
			a.logger.Warn("Seeding in-memory transactions failed", zap.Error(err))
		}
	}
	a.transactions = ss
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// seed inserts the sample data set into every connected store that is empty
func (a *app) seed(ctx context.Context) (profiles, transactions int, err error) {
	if a.profiles == nil && a.transactions == nil {
		return 0, 0, store.ErrNotConnected
	}
	var errs []error
	if a.profiles != nil {
		profiles, err = a.profiles.SeedIfEmpty(ctx, store.SampleProfiles())
		if err != nil {
			errs = append(errs, fmt.Errorf("seed profiles: %w", err))
		}
	}
	if a.transactions != nil {
		transactions, err = a.transactions.SeedIfEmpty(ctx, store.SampleTransactions())
		if err != nil {
			errs = append(errs, fmt.Errorf("seed transactions: %w", err))
		}
	}
	return profiles, transactions, errors.Join(errs...)
}

func (a *app) server() *server.Server {
	return server.New(a.processor, a.profiles, a.transactions, a.logger)
}

// Close releases store connections and caches
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.profiles != nil {
		if err := a.profiles.Close(ctx); err != nil {
			a.logger.Warn("Profile store close failed", zap.Error(err))
		}
	}
	if a.transactions != nil {
		if err := a.transactions.Close(); err != nil {
			a.logger.Warn("Transaction store close failed", zap.Error(err))
		}
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
