package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wealth-query-agent/internal/filter"
	"github.com/wealth-query-agent/internal/intent"
	"github.com/wealth-query-agent/internal/model"
	"github.com/wealth-query-agent/internal/store"
	"go.uber.org/zap/zaptest"
)

// recordingStore captures the last query and answers from memory or with Err.
type recordingStore struct {
	*store.MemoryProfileStore
	last store.ProfileQuery
}

func (r *recordingStore) Find(ctx context.Context, q store.ProfileQuery) ([]model.ClientProfile, error) {
	r.last = q
	return r.MemoryProfileStore.Find(ctx, q)
}

type failingTransactions struct{ store.TransactionStore }

func (failingTransactions) Recent(context.Context, int) ([]model.Transaction, error) {
	return nil, errors.New("connection refused")
}

func ids(profiles []model.ClientProfile) []string {
	out := make([]string, len(profiles))
	for i, p := range profiles {
		out[i] = p.ClientID
	}
	return out
}

func TestProfileQueryFor(t *testing.T) {
	trivial := filter.Compile("anything")
	mumbai := filter.Compile("mumbai")

	q := ProfileQueryFor(intent.QueryClientInfo, mumbai)
	assert.True(t, q.SortByValueDesc)
	assert.Equal(t, 20, q.Limit)

	q = ProfileQueryFor(intent.QueryTopPerformers, trivial)
	assert.True(t, q.SortByValueDesc)
	assert.Equal(t, 10, q.Limit)

	q = ProfileQueryFor(intent.QueryPortfolioSummary, trivial)
	assert.True(t, q.SortByValueDesc)
	assert.Equal(t, 10, q.Limit)

	q = ProfileQueryFor(intent.QueryBreakdownAnalysis, trivial)
	assert.False(t, q.SortByValueDesc)
	assert.Equal(t, 20, q.Limit)
}

func TestFetch_StoreReads(t *testing.T) {
	profiles := &recordingStore{MemoryProfileStore: store.NewMemoryProfileStore(store.SampleProfiles())}
	f := New(profiles, nil, zaptest.NewLogger(t))

	d := intent.Fallback("What are the top five portfolios of our wealth members?")
	ds := f.Fetch(context.Background(), d, filter.Compile(d.RawQuery))

	assert.True(t, ds.HasProfiles)
	assert.True(t, ds.HasTransactions)
	assert.Equal(t, 10, profiles.last.Limit)
	assert.Equal(t, []string{"C005", "C002", "C004", "C001", "C003"}, ids(ds.Profiles))
	// Transaction store is absent, so the sample set is used.
	assert.Len(t, ds.Transactions, 13)
}

func TestFetch_OnlyRequestedSources(t *testing.T) {
	f := New(store.NewMemoryProfileStore(store.SampleProfiles()), failingTransactions{}, zaptest.NewLogger(t))

	d := intent.Descriptor{QueryType: intent.QueryClientInfo, DataSources: []intent.DataSource{intent.SourceProfiles}}
	ds := f.Fetch(context.Background(), d, filter.Compile(""))
	assert.True(t, ds.HasProfiles)
	assert.False(t, ds.HasTransactions)
	assert.Nil(t, ds.Transactions)

	d.DataSources = []intent.DataSource{intent.SourceTransactions}
	ds = f.Fetch(context.Background(), d, filter.Compile(""))
	assert.False(t, ds.HasProfiles)
	assert.Nil(t, ds.Profiles)
	assert.Len(t, ds.Transactions, 13)
}

func TestFetch_ProfileFallbackFiltersSample(t *testing.T) {
	down := store.NewMemoryProfileStore(nil)
	down.Err = errors.New("mongo unreachable")
	f := New(down, failingTransactions{}, zaptest.NewLogger(t))

	query := "Show me clients from Mumbai with conservative risk"
	pred := filter.Compile(query)
	require.Equal(t, "Mumbai", pred.Location())
	require.Equal(t, model.RiskConservative, pred.Risk())

	ds := f.Fetch(context.Background(), intent.Fallback(query), pred)
	assert.Equal(t, []string{"C005"}, ids(ds.Profiles))
	assert.Len(t, ds.Transactions, 13)
}

func TestFetch_ProfileFallbackFailsOpen(t *testing.T) {
	f := New(nil, nil, zaptest.NewLogger(t))

	query := "clients in Ranchi"
	ds := f.Fetch(context.Background(), intent.Fallback(query), filter.Compile(query))

	require.Len(t, ds.Profiles, 5)
	// Filtered reads sort by value even when the filter fell open.
	assert.Equal(t, []string{"C005", "C002", "C004", "C001", "C003"}, ids(ds.Profiles))
}

func TestSampleProfilesFor_NaturalOrder(t *testing.T) {
	out := SampleProfilesFor(store.ProfileQuery{Filter: filter.Compile(""), Limit: 20})
	assert.Equal(t, []string{"C001", "C002", "C003", "C004", "C005"}, ids(out))

	out = SampleProfilesFor(store.ProfileQuery{Filter: filter.Compile("dhoni"), SortByValueDesc: true, Limit: 20})
	assert.Equal(t, []string{"C002"}, ids(out))
}

func TestFetch_NeverEmptyOnFallback(t *testing.T) {
	f := New(nil, nil, zaptest.NewLogger(t))
	for _, query := range []string{
		"aggressive clients like Deepika",
		"moderate Ranchi investors",
		"Virat Kohli conservative",
	} {
		ds := f.Fetch(context.Background(), intent.Fallback(query), filter.Compile(query))
		assert.NotEmpty(t, ds.Profiles, query)
	}
}
