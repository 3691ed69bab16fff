// Package intent classifies a free-text wealth-management question into a
// structured descriptor: what is asked, which stores to read, and how to show it.
package intent

import (
	"strings"
)

// QueryType is the classified purpose of a query
type QueryType string

const (
	QueryPortfolioSummary  QueryType = "portfolio_summary"
	QueryTopPerformers     QueryType = "top_performers"
	QueryBreakdownAnalysis QueryType = "breakdown_analysis"
	QueryClientInfo        QueryType = "client_info"
	QueryTransactionData   QueryType = "transaction_data"
)

// DataSource names one of the two stores
type DataSource string

const (
	SourceProfiles     DataSource = "profiles"
	SourceTransactions DataSource = "transactions"
)

// Visualization is the desired presentation shape
type Visualization string

const (
	VisualBar   Visualization = "bar"
	VisualPie   Visualization = "pie"
	VisualLine  Visualization = "line"
	VisualTable Visualization = "table"
	VisualText  Visualization = "text"
)

// Origin records where a descriptor came from
type Origin string

const (
	OriginLLM      Origin = "llm"
	OriginFallback Origin = "fallback"
	OriginCache    Origin = "cache"
)

// Descriptor is the per-request classification of a query. It is never shared
// across requests.
type Descriptor struct {
	QueryType     QueryType     `json:"query_type"`
	DataSources   []DataSource  `json:"data_sources"`
	Visualization Visualization `json:"visualization_type"`
	KeyEntities   []string      `json:"key_entities"`
	Summary       string        `json:"intent_summary"`
	Aggregations  []string      `json:"suggested_aggregations"`
	// RawQuery is the original text, carried so downstream filtering matches classification.
	RawQuery string `json:"raw_query"`
	Origin   Origin `json:"origin"`
}

// Uses reports whether the descriptor asks for the given store
func (d Descriptor) Uses(src DataSource) bool {
	for _, s := range d.DataSources {
		if s == src {
			return true
		}
	}
	return false
}

// ParseQueryType validates a query type string
func ParseQueryType(s string) (QueryType, bool) {
	switch qt := QueryType(strings.ToLower(strings.TrimSpace(s))); qt {
	case QueryPortfolioSummary, QueryTopPerformers, QueryBreakdownAnalysis, QueryClientInfo, QueryTransactionData:
		return qt, true
	default:
		return "", false
	}
}

// ParseVisualization validates a visualization string, accepting the
// "<kind>_chart" spelling some models emit.
func ParseVisualization(s string) (Visualization, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "_chart")
	switch vis := Visualization(v); vis {
	case VisualBar, VisualPie, VisualLine, VisualTable, VisualText:
		return vis, true
	default:
		return "", false
	}
}

// ParseDataSource validates a data source, accepting the store technology names.
func ParseDataSource(s string) (DataSource, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "profiles", "profile", "client_profiles", "mongodb", "mongo":
		return SourceProfiles, true
	case "transactions", "transaction", "investments", "mysql", "sql":
		return SourceTransactions, true
	default:
		return "", false
	}
}
