// Package chart builds chart-ready label/value series from fetched records.
// Rendering is left to the client.
package chart

import (
	"github.com/wealth-query-agent/internal/fetch"
	"github.com/wealth-query-agent/internal/filter"
	"github.com/wealth-query-agent/internal/intent"
	"github.com/wealth-query-agent/internal/model"
	"go.uber.org/zap"
)

// Chart kinds
const (
	TypeBar  = "bar"
	TypePie  = "pie"
	TypeLine = "line"
)

// Palette is cycled by the client across labels
var Palette = []string{"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF"}

const valueLabel = "Portfolio Value (₹)"

// Series is one data series of a chart
type Series struct {
	Label           string   `json:"label,omitempty"`
	Data            []int64  `json:"data"`
	BackgroundColor []string `json:"backgroundColor,omitempty"`
	BorderColor     string   `json:"borderColor,omitempty"`
	Fill            *bool    `json:"fill,omitempty"`
}

// Data is the chart projection of a dataset
type Data struct {
	Type     string   `json:"type"`
	Title    string   `json:"title,omitempty"`
	Labels   []string `json:"labels"`
	Datasets []Series `json:"datasets"`
}

// Builder dispatches on visualization type
type Builder struct {
	compiler *filter.Compiler
	logger   *zap.Logger
}

// NewBuilder creates a Builder. compiler may be nil.
func NewBuilder(compiler *filter.Compiler, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{compiler: compiler, logger: logger.Named("chart")}
}

// Narrow re-applies the predicate compiled from the raw query to the fetched
// profiles, then keeps only transactions of the remaining clients. A filter
// that would exclude every fetched profile keeps them all, matching the
// fetcher's sample fallback. When transactions were fetched, profiles without
// any are dropped so the chart covers the same clients as the joined table.
// Without profiles, transactions pass unchanged.
func (b *Builder) Narrow(d intent.Descriptor, ds fetch.Dataset) fetch.Dataset {
	out := ds
	if !ds.HasProfiles {
		return out
	}

	pred := b.compiler.Compile(d.RawQuery)
	profiles := pred.Apply(ds.Profiles)
	if len(profiles) == 0 && len(ds.Profiles) > 0 {
		profiles = append([]model.ClientProfile(nil), ds.Profiles...)
	}
	if ds.HasTransactions && len(ds.Transactions) > 0 {
		invested := make(map[string]bool, len(ds.Transactions))
		for _, t := range ds.Transactions {
			invested[t.ClientID] = true
		}
		kept := profiles[:0:0]
		for _, p := range profiles {
			if invested[p.ClientID] {
				kept = append(kept, p)
			}
		}
		profiles = kept
	}
	out.Profiles = profiles

	ids := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		ids[p.ClientID] = true
	}
	var txns []model.Transaction
	for _, t := range ds.Transactions {
		if ids[t.ClientID] {
			txns = append(txns, t)
		}
	}
	out.Transactions = txns
	return out
}

// Build narrows the dataset and projects it for the descriptor's
// visualization. Table and text visualizations are drawn as bars.
func (b *Builder) Build(d intent.Descriptor, ds fetch.Dataset) Data {
	ds = b.Narrow(d, ds)

	var out Data
	switch d.Visualization {
	case intent.VisualPie:
		out = pieChart(ds)
	case intent.VisualLine:
		out = lineChart()
	default:
		out = barChart(d.QueryType, ds)
	}

	b.logger.Debug("Chart built",
		zap.String("type", out.Type),
		zap.String("title", out.Title),
		zap.Int("labels", len(out.Labels)))
	return out
}

// grouping sums values by label in first-seen label order
type grouping struct {
	labels []string
	totals map[string]int64
}

func newGrouping() *grouping {
	return &grouping{totals: make(map[string]int64)}
}

func (g *grouping) add(label string, v int64) {
	if label == "" {
		label = "Unknown"
	}
	if _, ok := g.totals[label]; !ok {
		g.labels = append(g.labels, label)
	}
	g.totals[label] += model.NonNegative(v)
}

func (g *grouping) chart(kind, title, seriesLabel string) Data {
	values := make([]int64, len(g.labels))
	for i, l := range g.labels {
		values[i] = g.totals[l]
	}
	labels := g.labels
	if labels == nil {
		labels = []string{}
	}
	return Data{
		Type:   kind,
		Title:  title,
		Labels: labels,
		Datasets: []Series{{
			Label:           seriesLabel,
			Data:            values,
			BackgroundColor: Palette,
		}},
	}
}

func empty(kind string) Data {
	return Data{Type: kind, Labels: []string{}, Datasets: []Series{}}
}

func byClientName(profiles []model.ClientProfile, title string) Data {
	g := newGrouping()
	for _, p := range profiles {
		g.add(p.Name, p.PortfolioValue)
	}
	return g.chart(TypeBar, title, valueLabel)
}

func barChart(qt intent.QueryType, ds fetch.Dataset) Data {
	if qt == intent.QueryTopPerformers && len(ds.Profiles) > 0 {
		return byClientName(ds.Profiles, "Top Portfolios by Client")
	}
	if len(ds.Transactions) > 0 {
		g := newGrouping()
		for _, t := range ds.Transactions {
			g.add(t.RelationshipManager, t.PortfolioValue)
		}
		return g.chart(TypeBar, "Portfolio Values by Relationship Manager", valueLabel)
	}
	if len(ds.Profiles) > 0 {
		return byClientName(ds.Profiles, "Portfolio Values by Client")
	}
	return empty(TypeBar)
}

func pieChart(ds fetch.Dataset) Data {
	if len(ds.Transactions) > 0 {
		g := newGrouping()
		for _, t := range ds.Transactions {
			g.add(t.InvestmentType, t.PortfolioValue)
		}
		return g.chart(TypePie, "Portfolio Breakdown by Investment Type", "")
	}
	if len(ds.Profiles) > 0 {
		g := newGrouping()
		for _, p := range ds.Profiles {
			g.add(string(p.RiskAppetite), p.PortfolioValue)
		}
		return g.chart(TypePie, "Portfolio Breakdown by Risk Appetite", "")
	}
	return empty(TypePie)
}

// lineChart is an illustrative series; no store keeps value history.
func lineChart() Data {
	fill := false
	return Data{
		Type:   TypeLine,
		Title:  "Portfolio Performance Over Time",
		Labels: []string{"Jan", "Feb", "Mar", "Apr", "May"},
		Datasets: []Series{{
			Label:       "Portfolio Growth",
			Data:        []int64{10000000, 12000000, 11500000, 13000000, 14500000},
			BorderColor: "#36A2EB",
			Fill:        &fill,
		}},
	}
}

// ClientIDs returns the clients contributing to a narrowed dataset: the
// profiles when present, otherwise the transactions.
func ClientIDs(ds fetch.Dataset) map[string]bool {
	out := make(map[string]bool)
	if ds.HasProfiles {
		for _, p := range ds.Profiles {
			out[p.ClientID] = true
		}
		return out
	}
	for _, t := range ds.Transactions {
		out[t.ClientID] = true
	}
	return out
}
