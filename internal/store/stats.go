package store

import (
	"context"
	"time"

	"github.com/wealth-query-agent/internal/model"
)

// Stats is the book-level overview served alongside query results
type Stats struct {
	TotalClients         int64     `json:"total_clients"`
	ActivePortfolios     int       `json:"active_portfolios"`
	TotalPortfolioValue  string    `json:"total_portfolio_value"`
	RelationshipManagers int       `json:"relationship_managers"`
	LastUpdated          time.Time `json:"last_updated"`
	Source               string    `json:"source"`
}

// Stats sources
const (
	StatsLive    = "live"
	StatsSample  = "sample"
	StatsPartial = "partial"
)

// ComputeStats reads counts and totals from the stores. Each store that fails
// is replaced by its sample set, which Source reports.
func ComputeStats(ctx context.Context, profiles ProfileStore, txns TransactionStore) Stats {
	s := Stats{LastUpdated: time.Now().UTC()}
	failed := 0

	var err error = ErrNotConnected
	if profiles != nil {
		s.TotalClients, err = profiles.Count(ctx)
	}
	if err != nil {
		failed++
		s.TotalClients = int64(len(SampleProfiles()))
	}

	var totals []ClientTotal
	var managers []ManagerPerformance
	err = ErrNotConnected
	if txns != nil {
		totals, err = txns.PortfolioSummary(ctx)
		if err == nil {
			managers, err = txns.ManagerPerformance(ctx)
		}
	}
	if err != nil {
		failed++
		totals, managers = summarize(SampleTransactions())
	}

	clients := make(map[string]bool)
	var total int64
	for _, t := range totals {
		clients[t.ClientID] = true
		total += t.TotalValue
	}
	s.ActivePortfolios = len(clients)
	s.TotalPortfolioValue = model.FormatINR(total)
	s.RelationshipManagers = len(managers)

	switch failed {
	case 0:
		s.Source = StatsLive
	case 2:
		s.Source = StatsSample
	default:
		s.Source = StatsPartial
	}
	return s
}

// summarize computes the store rollups over in-memory transactions
func summarize(txns []model.Transaction) ([]ClientTotal, []ManagerPerformance) {
	type key struct{ client, manager string }
	totalIdx := make(map[key]int)
	var totals []ClientTotal

	mgrIdx := make(map[string]int)
	mgrClients := make(map[string]map[string]bool)
	mgrCount := make(map[string]int64)
	var managers []ManagerPerformance

	for _, t := range txns {
		k := key{t.ClientID, t.RelationshipManager}
		i, ok := totalIdx[k]
		if !ok {
			i = len(totals)
			totalIdx[k] = i
			totals = append(totals, ClientTotal{ClientID: t.ClientID, RelationshipManager: t.RelationshipManager})
		}
		totals[i].TotalValue += t.PortfolioValue
		totals[i].InvestmentCount++

		j, ok := mgrIdx[t.RelationshipManager]
		if !ok {
			j = len(managers)
			mgrIdx[t.RelationshipManager] = j
			managers = append(managers, ManagerPerformance{RelationshipManager: t.RelationshipManager})
			mgrClients[t.RelationshipManager] = make(map[string]bool)
		}
		managers[j].TotalManaged += t.PortfolioValue
		mgrClients[t.RelationshipManager][t.ClientID] = true
		mgrCount[t.RelationshipManager]++
	}
	for i := range managers {
		m := &managers[i]
		m.ClientCount = int64(len(mgrClients[m.RelationshipManager]))
		m.AveragePortfolio = float64(m.TotalManaged) / float64(mgrCount[m.RelationshipManager])
	}
	return totals, managers
}
