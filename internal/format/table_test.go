package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wealth-query-agent/internal/fetch"
	"github.com/wealth-query-agent/internal/jsonx"
	"github.com/wealth-query-agent/internal/model"
	"github.com/wealth-query-agent/internal/store"
)

func sampleDataset() fetch.Dataset {
	return fetch.Dataset{
		Profiles:        store.SampleProfiles(),
		Transactions:    store.SampleTransactions(),
		HasProfiles:     true,
		HasTransactions: true,
	}
}

func assertDescending(t *testing.T, table Table, col string) {
	t.Helper()
	for i := 1; i < len(table.Rows); i++ {
		prev, _ := table.Rows[i-1].Get(col)
		cur, _ := table.Rows[i].Get(col)
		assert.GreaterOrEqual(t, model.ParseINR(prev), model.ParseINR(cur), "row %d", i)
	}
}

func TestBuildTable_SampleRoundTrip(t *testing.T) {
	ds := sampleDataset()
	distinct := make(map[string]bool)
	for _, tx := range ds.Transactions {
		distinct[tx.ClientID] = true
	}

	table := BuildTable(ds)
	require.Len(t, table.Rows, len(distinct))
	assert.Equal(t, []string{ColClientID, ColClientName, ColTotalValue, ColManagers, ColInvestments, ColRisk, ColLocation}, table.Columns)
	assertDescending(t, table, ColTotalValue)

	first := table.Rows[0]
	id, _ := first.Get(ColClientID)
	total, _ := first.Get(ColTotalValue)
	kinds, _ := first.Get(ColInvestments)
	managers, _ := first.Get(ColManagers)
	assert.Equal(t, "C005", id)
	assert.Equal(t, "₹175,000,000", total)
	assert.Equal(t, "Mixed Portfolio, International Funds, Real Estate", kinds)
	assert.Equal(t, "Amit Kumar", managers)

	// Same input, same output.
	assert.Equal(t, table, BuildTable(sampleDataset()))
}

func TestBuildTable_DropsUnknownClients(t *testing.T) {
	ds := sampleDataset()
	ds.Transactions = append(ds.Transactions, model.Transaction{
		ClientID: "C999", PortfolioValue: 999000000, RelationshipManager: "Ghost", InvestmentType: "Crypto",
	})
	ds.Profiles = ds.Profiles[:2]

	table := BuildTable(ds)
	require.Len(t, table.Rows, 2)
	for _, r := range table.Rows {
		name, _ := r.Get(ColClientName)
		assert.NotEqual(t, UnknownClient, name)
	}
	assert.NotContains(t, table.ClientIDs(), "C999")
}

func TestBuildTable_ProfilesOnly(t *testing.T) {
	table := BuildTable(fetch.Dataset{Profiles: store.SampleProfiles(), HasProfiles: true})
	require.Len(t, table.Rows, 5)
	assert.Equal(t, []string{ColClientID, ColClientName, ColPortfolioValue, ColRisk, ColLocation, ColManager}, table.Columns)
	assertDescending(t, table, ColPortfolioValue)

	loc, _ := table.Rows[1].Get(ColLocation)
	assert.Equal(t, "Chennai", loc)
}

func TestBuildTable_TransactionsOnly(t *testing.T) {
	txns := []model.Transaction{
		{ClientID: "X1", PortfolioValue: 100, RelationshipManager: "A", InvestmentType: "Equity"},
		{ClientID: "X2", PortfolioValue: 5000, RelationshipManager: "B", InvestmentType: "Bonds"},
		{ClientID: "X1", PortfolioValue: 200, RelationshipManager: "C", InvestmentType: "Equity"},
	}
	table := BuildTable(fetch.Dataset{Transactions: txns, HasTransactions: true})

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{ColClientID, ColTotalValue, ColManagers, ColInvestments}, table.Columns)
	id, _ := table.Rows[0].Get(ColClientID)
	assert.Equal(t, "X2", id)
	managers, _ := table.Rows[1].Get(ColManagers)
	kinds, _ := table.Rows[1].Get(ColInvestments)
	assert.Equal(t, "A, C", managers)
	assert.Equal(t, "Equity", kinds)
}

func TestBuildTable_CapsRows(t *testing.T) {
	var txns []model.Transaction
	for i := 0; i < 30; i++ {
		txns = append(txns, model.Transaction{ClientID: string(rune('A'+i%26)) + string(rune('a'+i/26)), PortfolioValue: int64(i * 1000)})
	}
	table := BuildTable(fetch.Dataset{Transactions: txns, HasTransactions: true})
	assert.Len(t, table.Rows, 20)
	assertDescending(t, table, ColTotalValue)
}

func TestBuildTable_Empty(t *testing.T) {
	table := BuildTable(fetch.Dataset{})
	assert.Empty(t, table.Rows)
	assert.NotNil(t, table.Columns)

	data, err := jsonx.Marshal(table)
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":[],"rows":[]}`, string(data))
}

func TestRow_MarshalKeepsOrder(t *testing.T) {
	row := Row{{"Zeta", "1"}, {"Alpha", `quote"d`}}
	data, err := jsonx.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"Zeta":"1","Alpha":"quote\"d"}`, string(data))
}

func TestBuildTable_EmptyProfileReadJoinsNothing(t *testing.T) {
	table := BuildTable(fetch.Dataset{
		Transactions:    store.SampleTransactions(),
		HasProfiles:     true,
		HasTransactions: true,
	})
	assert.Empty(t, table.Rows)
	assert.Empty(t, table.Columns)
}
