package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wealth-query-agent/internal/fetch"
	"github.com/wealth-query-agent/internal/filter"
	"github.com/wealth-query-agent/internal/format"
	"github.com/wealth-query-agent/internal/intent"
	"github.com/wealth-query-agent/internal/jsonx"
	"github.com/wealth-query-agent/internal/model"
	"github.com/wealth-query-agent/internal/store"
	"go.uber.org/zap/zaptest"
)

func fullDataset() fetch.Dataset {
	return fetch.Dataset{
		Profiles:        store.SampleProfiles(),
		Transactions:    store.SampleTransactions(),
		HasProfiles:     true,
		HasTransactions: true,
	}
}

func newBuilder(t *testing.T) *Builder {
	return NewBuilder(filter.NewCompiler(16), zaptest.NewLogger(t))
}

func series(t *testing.T, d Data) map[string]int64 {
	t.Helper()
	require.Len(t, d.Datasets, 1)
	require.Len(t, d.Datasets[0].Data, len(d.Labels))
	out := make(map[string]int64, len(d.Labels))
	for i, l := range d.Labels {
		out[l] = d.Datasets[0].Data[i]
	}
	return out
}

func TestBuild_TopPerformersByClient(t *testing.T) {
	d := intent.Fallback("What are the top five portfolios of our wealth members?")
	ds := fullDataset()
	store.SortProfilesByValue(ds.Profiles)

	c := newBuilder(t).Build(d, ds)
	assert.Equal(t, TypeBar, c.Type)
	assert.Equal(t, []string{"Shah Rukh Khan", "MS Dhoni", "Deepika Padukone", "Virat Kohli", "Rohit Sharma"}, c.Labels)
	assert.Equal(t, int64(100000000), series(t, c)["Shah Rukh Khan"])
	assert.Equal(t, Palette, c.Datasets[0].BackgroundColor)
}

func TestBuild_BarByManager(t *testing.T) {
	d := intent.Descriptor{QueryType: intent.QueryPortfolioSummary, Visualization: intent.VisualBar, RawQuery: "portfolio by manager"}

	c := newBuilder(t).Build(d, fullDataset())
	assert.Equal(t, "Portfolio Values by Relationship Manager", c.Title)
	assert.Equal(t, []string{"Amit Kumar", "Priya Singh", "Rajesh Mehta", "Neha Gupta"}, c.Labels)
	assert.Equal(t, int64(260000000), series(t, c)["Amit Kumar"])
}

func TestBuild_TableAndTextDrawAsBars(t *testing.T) {
	for _, vis := range []intent.Visualization{intent.VisualTable, intent.VisualText} {
		d := intent.Descriptor{QueryType: intent.QueryClientInfo, Visualization: vis}
		assert.Equal(t, TypeBar, newBuilder(t).Build(d, fullDataset()).Type)
	}
}

func TestBuild_BarByClientWithoutTransactions(t *testing.T) {
	d := intent.Descriptor{QueryType: intent.QueryClientInfo, Visualization: intent.VisualBar}
	ds := fetch.Dataset{Profiles: store.SampleProfiles(), HasProfiles: true}

	c := newBuilder(t).Build(d, ds)
	assert.Equal(t, "Portfolio Values by Client", c.Title)
	assert.Len(t, c.Labels, 5)
}

func TestBuild_PieByInvestmentType(t *testing.T) {
	d := intent.Fallback("Breakup of portfolio values by relationship manager")
	require.Equal(t, intent.VisualPie, d.Visualization)

	c := newBuilder(t).Build(d, fullDataset())
	assert.Equal(t, TypePie, c.Type)
	assert.Equal(t, "Portfolio Breakdown by Investment Type", c.Title)
	values := series(t, c)
	assert.Equal(t, int64(70000000), values["Bonds"])
	assert.Equal(t, int64(85000000), values["Real Estate"])
	assert.NotContains(t, c.Labels, "Amit Kumar")
}

func TestBuild_PieByRiskWithoutTransactions(t *testing.T) {
	d := intent.Descriptor{Visualization: intent.VisualPie}
	ds := fetch.Dataset{Profiles: store.SampleProfiles(), HasProfiles: true}

	c := newBuilder(t).Build(d, ds)
	assert.Equal(t, "Portfolio Breakdown by Risk Appetite", c.Title)
	assert.Equal(t, map[string]int64{
		"moderate":     110000000,
		"conservative": 175000000,
		"aggressive":   45000000,
	}, series(t, c))
}

func TestBuild_Line(t *testing.T) {
	c := newBuilder(t).Build(intent.Descriptor{Visualization: intent.VisualLine}, fetch.Dataset{})
	assert.Equal(t, []string{"Jan", "Feb", "Mar", "Apr", "May"}, c.Labels)
	assert.Equal(t, []int64{10000000, 12000000, 11500000, 13000000, 14500000}, c.Datasets[0].Data)

	data, err := jsonx.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fill":false`)
}

func TestBuild_Empty(t *testing.T) {
	c := newBuilder(t).Build(intent.Descriptor{Visualization: intent.VisualBar}, fetch.Dataset{})
	data, err := jsonx.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"bar","labels":[],"datasets":[]}`, string(data))
}

func TestNarrow(t *testing.T) {
	b := newBuilder(t)
	query := "Show me clients from Mumbai with conservative risk"

	n := b.Narrow(intent.Fallback(query), fullDataset())
	require.Len(t, n.Profiles, 1)
	assert.Equal(t, "C005", n.Profiles[0].ClientID)
	require.Len(t, n.Transactions, 3)
	for _, tx := range n.Transactions {
		assert.Equal(t, "C005", tx.ClientID)
	}

	// No profiles requested: transactions are kept whole.
	ds := fetch.Dataset{Transactions: store.SampleTransactions(), HasTransactions: true}
	assert.Len(t, b.Narrow(intent.Fallback(query), ds).Transactions, 13)

	// Profiles that already fell open stay whole.
	ranchi := b.Narrow(intent.Fallback("clients in ranchi"), fullDataset())
	assert.Len(t, ranchi.Profiles, 5)
	assert.Len(t, ranchi.Transactions, 13)
}

func TestChartAndTableShareClients(t *testing.T) {
	b := newBuilder(t)
	for _, query := range []string{
		"Show me clients from Mumbai with conservative risk",
		"What are the top five portfolios of our wealth members?",
		"Breakup of portfolio values by relationship manager",
		"Moderate clients like Virat",
		"clients in Ranchi",
	} {
		t.Run(query, func(t *testing.T) {
			d := intent.Fallback(query)
			ds := fetch.Dataset{
				Profiles:        fetch.SampleProfilesFor(fetch.ProfileQueryFor(d.QueryType, filter.Compile(query))),
				Transactions:    store.SampleTransactions(),
				HasProfiles:     true,
				HasTransactions: true,
			}
			table := format.BuildTable(ds)
			narrowed := b.Narrow(d, ds)
			assert.Equal(t, table.ClientIDs(), ClientIDs(narrowed))
		})
	}
}

func TestChartAndTableShareClients_ProfileWithoutInvestments(t *testing.T) {
	b := newBuilder(t)
	query := "Who are the top clients?"
	d := intent.Fallback(query)
	require.Equal(t, intent.QueryTopPerformers, d.QueryType)

	profiles := append(store.SampleProfiles(), model.ClientProfile{
		ClientID:            "C006",
		Name:                "Anil Ambani",
		PortfolioValue:      200000000,
		RiskAppetite:        model.RiskAggressive,
		RelationshipManager: "Amit Kumar",
	})
	store.SortProfilesByValue(profiles)
	ds := fetch.Dataset{
		Profiles:        profiles,
		Transactions:    store.SampleTransactions(),
		HasProfiles:     true,
		HasTransactions: true,
	}

	table := format.BuildTable(ds)
	c := b.Build(d, ds)
	assert.NotContains(t, c.Labels, "Anil Ambani")
	assert.Len(t, c.Labels, 5)
	assert.Equal(t, table.ClientIDs(), ClientIDs(b.Narrow(d, ds)))
	assert.False(t, table.ClientIDs()["C006"])
}

func TestNarrow_NoMatchingTransactions(t *testing.T) {
	ds := fetch.Dataset{
		Profiles:        []model.ClientProfile{{ClientID: "C006", Name: "Anil Ambani", PortfolioValue: 200000000}},
		Transactions:    store.SampleTransactions(),
		HasProfiles:     true,
		HasTransactions: true,
	}
	n := newBuilder(t).Narrow(intent.Fallback("Who are the top clients?"), ds)
	assert.Empty(t, n.Profiles)
	assert.Empty(t, n.Transactions)
	assert.Empty(t, format.BuildTable(ds).Rows)
}

func TestGrouping_FirstSeenOrder(t *testing.T) {
	g := newGrouping()
	g.add("b", 1)
	g.add("a", 2)
	g.add("b", 3)
	g.add("", 4)
	g.add("c", -5)
	c := g.chart(TypeBar, "t", "l")
	assert.Equal(t, []string{"b", "a", "Unknown", "c"}, c.Labels)
	assert.Equal(t, []int64{4, 2, 4, 0}, c.Datasets[0].Data)
}
