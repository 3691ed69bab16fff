// Package fetch reads the records a classified query needs from the profile
// and transaction stores, substituting sample data whenever a store fails.
package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/wealth-query-agent/internal/filter"
	"github.com/wealth-query-agent/internal/intent"
	"github.com/wealth-query-agent/internal/metrics"
	"github.com/wealth-query-agent/internal/model"
	"github.com/wealth-query-agent/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	filteredLimit     = 20
	rankedLimit       = 10
	unfilteredLimit   = 20
	transactionsLimit = 20
)

// Dataset is the raw material for one response. The Has flags record which
// stores the intent asked for, independent of how many rows came back.
type Dataset struct {
	Profiles        []model.ClientProfile
	Transactions    []model.Transaction
	HasProfiles     bool
	HasTransactions bool
}

// Fetcher reads from both stores. Either store may be nil, which behaves as a
// store that always fails.
type Fetcher struct {
	profiles     store.ProfileStore
	transactions store.TransactionStore
	logger       *zap.Logger
}

// New creates a Fetcher
func New(profiles store.ProfileStore, transactions store.TransactionStore, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		profiles:     profiles,
		transactions: transactions,
		logger:       logger.Named("fetch"),
	}
}

// Fetch never fails; store errors resolve to sample data.
func (f *Fetcher) Fetch(ctx context.Context, d intent.Descriptor, pred filter.Predicate) Dataset {
	var ds Dataset
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	if d.Uses(intent.SourceProfiles) {
		ds.HasProfiles = true
		g.Go(func() error {
			ds.Profiles = f.fetchProfiles(gctx, d, pred)
			return nil
		})
	}
	if d.Uses(intent.SourceTransactions) {
		ds.HasTransactions = true
		g.Go(func() error {
			ds.Transactions = f.fetchTransactions(gctx)
			return nil
		})
	}
	_ = g.Wait()

	f.logger.Debug("Data fetched",
		zap.Stringer("filter", pred),
		zap.Int("profiles", len(ds.Profiles)),
		zap.Int("transactions", len(ds.Transactions)),
		zap.Duration("duration", time.Since(start)))
	return ds
}

// ProfileQueryFor chooses the profile read for a query type and predicate
func ProfileQueryFor(qt intent.QueryType, pred filter.Predicate) store.ProfileQuery {
	if !pred.IsTrivial() {
		return store.ProfileQuery{Filter: pred, SortByValueDesc: true, Limit: filteredLimit}
	}
	name := string(qt)
	if strings.Contains(name, "top") || strings.Contains(name, "portfolio") {
		return store.ProfileQuery{Filter: pred, SortByValueDesc: true, Limit: rankedLimit}
	}
	return store.ProfileQuery{Filter: pred, Limit: unfilteredLimit}
}

func (f *Fetcher) fetchProfiles(ctx context.Context, d intent.Descriptor, pred filter.Predicate) []model.ClientProfile {
	q := ProfileQueryFor(d.QueryType, pred)

	var profiles []model.ClientProfile
	err := store.ErrNotConnected
	if f.profiles != nil {
		profiles, err = f.profiles.Find(ctx, q)
	}
	if err == nil {
		return profiles
	}

	f.logger.Warn("Profile store read failed, using sample data", zap.Error(err))
	metrics.RecordStoreFallback("profiles")
	return SampleProfilesFor(q)
}

// SampleProfilesFor answers q from the sample set. A filter that excludes
// every sample falls open to the whole set.
func SampleProfilesFor(q store.ProfileQuery) []model.ClientProfile {
	sample := store.SampleProfiles()
	out := q.Filter.Apply(sample)
	if len(out) == 0 {
		out = sample
	}
	if q.SortByValueDesc {
		store.SortProfilesByValue(out)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (f *Fetcher) fetchTransactions(ctx context.Context) []model.Transaction {
	var txns []model.Transaction
	err := store.ErrNotConnected
	if f.transactions != nil {
		txns, err = f.transactions.Recent(ctx, transactionsLimit)
	}
	if err == nil {
		return txns
	}

	f.logger.Warn("Transaction store read failed, using sample data", zap.Error(err))
	metrics.RecordStoreFallback("transactions")
	return store.SampleTransactions()
}
