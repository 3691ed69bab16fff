// Package store provides the profile and transaction stores read by the query
// pipeline, plus the fixed sample sets substituted when a store fails.
package store

import (
	"context"
	"errors"

	"github.com/wealth-query-agent/internal/filter"
	"github.com/wealth-query-agent/internal/model"
)

// ErrNotConnected is returned by stores that were never configured or have been closed.
var ErrNotConnected = errors.New("store not connected")

// ProfileQuery describes one read against the profile store.
// A trivial Filter reads without constraints.
type ProfileQuery struct {
	Filter          filter.Predicate
	SortByValueDesc bool
	Limit           int
}

// ProfileStore reads client profiles
type ProfileStore interface {
	Find(ctx context.Context, q ProfileQuery) ([]model.ClientProfile, error)
	Count(ctx context.Context) (int64, error)
	SeedIfEmpty(ctx context.Context, profiles []model.ClientProfile) (int, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ManagerPerformance is the per-manager rollup of the transaction store
type ManagerPerformance struct {
	RelationshipManager string  `json:"relationship_manager"`
	ClientCount         int64   `json:"client_count"`
	TotalManaged        int64   `json:"total_managed"`
	AveragePortfolio    float64 `json:"avg_portfolio"`
}

// ClientTotal is the per-client rollup of the transaction store
type ClientTotal struct {
	ClientID            string `json:"client_id"`
	RelationshipManager string `json:"relationship_manager"`
	TotalValue          int64  `json:"total_value"`
	InvestmentCount     int64  `json:"investment_count"`
}

// TransactionStore reads investment records
type TransactionStore interface {
	Recent(ctx context.Context, limit int) ([]model.Transaction, error)
	ManagerPerformance(ctx context.Context) ([]ManagerPerformance, error)
	PortfolioSummary(ctx context.Context) ([]ClientTotal, error)
	SeedIfEmpty(ctx context.Context, txns []model.Transaction) (int, error)
	Ping(ctx context.Context) error
	Close() error
}
