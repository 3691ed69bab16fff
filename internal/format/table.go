package format

import (
	"sort"
	"strings"

	"github.com/valyala/bytebufferpool"
	"github.com/wealth-query-agent/internal/fetch"
	"github.com/wealth-query-agent/internal/jsonx"
	"github.com/wealth-query-agent/internal/model"
)

// Table column names
const (
	ColClientID       = "Client ID"
	ColClientName     = "Client Name"
	ColTotalValue     = "Total Portfolio Value"
	ColPortfolioValue = "Portfolio Value"
	ColManagers       = "Relationship Manager(s)"
	ColManager        = "Relationship Manager"
	ColInvestments    = "Investment Types"
	ColRisk           = "Risk Appetite"
	ColLocation       = "Location"
)

const (
	// UnknownClient names a transaction whose client has no profile.
	UnknownClient = "Unknown"
	notAvailable  = "N/A"
	maxTableRows  = 20
)

// Field is one named cell of a row
type Field struct {
	Name  string
	Value string
}

// Row is an ordered set of cells. It encodes as a JSON object whose keys keep
// the row's column order.
type Row []Field

// Get returns the value of the named cell
func (r Row) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Names returns the row's column names in order
func (r Row) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

func (r Row) MarshalJSON() ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := jsonx.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := jsonx.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')

	return append([]byte(nil), buf.B...), nil
}

// Table is the tabular projection of a dataset
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// clientAggregate is the per-client rollup of transactions
type clientAggregate struct {
	clientID    string
	total       int64
	managers    []string
	investments []string
}

func appendDistinct(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// aggregateByClient sums transactions per client, keeping first-seen order of
// clients, managers and investment types.
func aggregateByClient(txns []model.Transaction) []*clientAggregate {
	index := make(map[string]*clientAggregate)
	var out []*clientAggregate
	for _, t := range txns {
		agg, ok := index[t.ClientID]
		if !ok {
			agg = &clientAggregate{clientID: t.ClientID}
			index[t.ClientID] = agg
			out = append(out, agg)
		}
		agg.total += model.NonNegative(t.PortfolioValue)
		if t.RelationshipManager != "" {
			agg.managers = appendDistinct(agg.managers, t.RelationshipManager)
		}
		if t.InvestmentType != "" {
			agg.investments = appendDistinct(agg.investments, t.InvestmentType)
		}
	}
	return out
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// BuildTable projects a dataset into rows, one per client. Transactions are
// joined to profiles whenever profiles were requested.
// Rows are ordered by descending portfolio value, capped at 20, and never
// include clients without a profile when profiles were joined.
func BuildTable(ds fetch.Dataset) Table {
	var rows []Row
	valueCol := ColTotalValue

	hasProfiles := ds.HasProfiles && len(ds.Profiles) > 0
	hasTxns := ds.HasTransactions && len(ds.Transactions) > 0

	switch {
	case ds.HasProfiles && hasTxns:
		// An empty profile read joins nothing rather than falling through to
		// the transactions-only view.
		byID := make(map[string]model.ClientProfile, len(ds.Profiles))
		for _, p := range ds.Profiles {
			byID[p.ClientID] = p
		}
		for _, agg := range aggregateByClient(ds.Transactions) {
			name, risk, location := UnknownClient, notAvailable, notAvailable
			if p, ok := byID[agg.clientID]; ok {
				name = p.Name
				risk = orNA(string(p.RiskAppetite))
				location = orNA(p.Location())
			}
			if name == UnknownClient {
				continue
			}
			rows = append(rows, Row{
				{ColClientID, agg.clientID},
				{ColClientName, name},
				{ColTotalValue, model.FormatINR(agg.total)},
				{ColManagers, orNA(strings.Join(agg.managers, ", "))},
				{ColInvestments, orNA(strings.Join(agg.investments, ", "))},
				{ColRisk, risk},
				{ColLocation, location},
			})
		}

	case hasProfiles:
		valueCol = ColPortfolioValue
		for _, p := range ds.Profiles {
			rows = append(rows, Row{
				{ColClientID, p.ClientID},
				{ColClientName, p.Name},
				{ColPortfolioValue, model.FormatINR(model.NonNegative(p.PortfolioValue))},
				{ColRisk, orNA(string(p.RiskAppetite))},
				{ColLocation, orNA(p.Location())},
				{ColManager, orNA(p.RelationshipManager)},
			})
		}

	case hasTxns:
		for _, agg := range aggregateByClient(ds.Transactions) {
			rows = append(rows, Row{
				{ColClientID, agg.clientID},
				{ColTotalValue, model.FormatINR(agg.total)},
				{ColManagers, orNA(strings.Join(agg.managers, ", "))},
				{ColInvestments, orNA(strings.Join(agg.investments, ", "))},
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		vi, _ := rows[i].Get(valueCol)
		vj, _ := rows[j].Get(valueCol)
		return model.ParseINR(vi) > model.ParseINR(vj)
	})
	if len(rows) > maxTableRows {
		rows = rows[:maxTableRows]
	}

	t := Table{Columns: []string{}, Rows: rows}
	if t.Rows == nil {
		t.Rows = []Row{}
	}
	if len(rows) > 0 {
		t.Columns = rows[0].Names()
	}
	return t
}

// ClientIDs returns the distinct client IDs present in the table
func (t Table) ClientIDs() map[string]bool {
	out := make(map[string]bool, len(t.Rows))
	for _, r := range t.Rows {
		if id, ok := r.Get(ColClientID); ok {
			out[id] = true
		}
	}
	return out
}
