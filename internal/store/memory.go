package store

import (
	"context"
	"sort"
	"sync"

	"github.com/wealth-query-agent/internal/model"
)

// MemoryProfileStore keeps profiles in process. It backs tests and the
// offline CLI; Err, when set, is returned from every read.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles []model.ClientProfile
	Err      error
}

// NewMemoryProfileStore creates a store holding a copy of profiles
func NewMemoryProfileStore(profiles []model.ClientProfile) *MemoryProfileStore {
	return &MemoryProfileStore{profiles: append([]model.ClientProfile(nil), profiles...)}
}

func (m *MemoryProfileStore) Find(ctx context.Context, q ProfileQuery) ([]model.ClientProfile, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := q.Filter.Apply(m.profiles)
	m.mu.RUnlock()

	if q.SortByValueDesc {
		SortProfilesByValue(out)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryProfileStore) Count(ctx context.Context) (int64, error) {
	if err := m.check(ctx); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.profiles)), nil
}

func (m *MemoryProfileStore) SeedIfEmpty(ctx context.Context, profiles []model.ClientProfile) (int, error) {
	if err := m.check(ctx); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.profiles) > 0 {
		return 0, nil
	}
	m.profiles = append(m.profiles, profiles...)
	return len(profiles), nil
}

func (m *MemoryProfileStore) Ping(ctx context.Context) error { return m.check(ctx) }

func (m *MemoryProfileStore) Close(context.Context) error { return nil }

func (m *MemoryProfileStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.Err
}

// SortProfilesByValue orders profiles by descending portfolio value.
// Ties keep their input order.
func SortProfilesByValue(profiles []model.ClientProfile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].PortfolioValue > profiles[j].PortfolioValue
	})
}

// SortTransactionsByValue orders transactions by descending value.
// Ties keep their input order.
func SortTransactionsByValue(txns []model.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].PortfolioValue > txns[j].PortfolioValue
	})
}
