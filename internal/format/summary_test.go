package format

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wealth-query-agent/internal/ai/router"
	"github.com/wealth-query-agent/internal/fetch"
	"github.com/wealth-query-agent/internal/intent"
	"github.com/wealth-query-agent/internal/store"
	"go.uber.org/zap/zaptest"
)

func TestNewDigest(t *testing.T) {
	d := NewDigest(sampleDataset())
	assert.Equal(t, 5, d.ProfileCount)
	assert.Equal(t, int64(330000000), d.ProfileTotal)
	assert.Equal(t, 2, d.RiskCounts["conservative"])
	assert.Equal(t, 4, d.LocationCounts["Mumbai"])
	assert.Equal(t, 13, d.TransactionCount)
	assert.Equal(t, int64(540000000), d.TransactionTotal)
	assert.Equal(t, int64(260000000), d.ManagerTotals["Amit Kumar"])

	text := d.String()
	assert.Contains(t, text, "Client profiles: 5")
	assert.Contains(t, text, "Total portfolio value: ₹330,000,000")
	assert.Contains(t, text, "Investment records: 13")
	assert.Contains(t, text, "Amit Kumar=₹260,000,000")
}

func TestTemplateSummary_Branches(t *testing.T) {
	query := "portfolio overview"

	both := TemplateSummary(query, NewDigest(sampleDataset()))
	assert.Contains(t, both, "5 client profiles")
	assert.Contains(t, both, "₹330,000,000")
	assert.Contains(t, both, "13 investment records")
	assert.Contains(t, both, "₹540,000,000")

	profilesOnly := TemplateSummary(query, NewDigest(fetch.Dataset{Profiles: store.SampleProfiles(), HasProfiles: true}))
	assert.Contains(t, profilesOnly, "5 client profiles")
	assert.NotContains(t, profilesOnly, "investment records")

	txnsOnly := TemplateSummary(query, NewDigest(fetch.Dataset{Transactions: store.SampleTransactions(), HasTransactions: true}))
	assert.Contains(t, txnsOnly, "13 investment records")
	assert.NotContains(t, txnsOnly, "client profiles")

	neither := TemplateSummary(query, NewDigest(fetch.Dataset{HasProfiles: true}))
	assert.Contains(t, neither, "could not find matching records")
}

func TestSummarize_UsesService(t *testing.T) {
	var prompt string
	gen := router.GeneratorFunc(func(ctx context.Context, p string) (string, error) {
		prompt = p
		return "  Shah Rukh Khan leads the book.  \n", nil
	})
	s := NewSummarizer(gen, 0, zaptest.NewLogger(t))

	d := intent.Fallback("top clients")
	out := s.Summarize(context.Background(), "top clients", d, sampleDataset())

	assert.Equal(t, "Shah Rukh Khan leads the book.", out)
	assert.Contains(t, prompt, `"top clients"`)
	assert.Contains(t, prompt, "Query type: top_performers")
	assert.Contains(t, prompt, "Client profiles: 5")
}

func TestSummarize_FallsBackToTemplate(t *testing.T) {
	ds := sampleDataset()
	want := TemplateSummary("top clients", NewDigest(ds))

	for name, gen := range map[string]router.Generator{
		"stub":  router.Stub{},
		"error": router.GeneratorFunc(func(context.Context, string) (string, error) { return "", errors.New("quota") }),
		"blank": router.GeneratorFunc(func(context.Context, string) (string, error) { return " \n ", nil }),
	} {
		t.Run(name, func(t *testing.T) {
			s := NewSummarizer(gen, 0, zaptest.NewLogger(t))
			out := s.Summarize(context.Background(), "top clients", intent.Fallback("top clients"), ds)
			assert.Equal(t, want, out)
			assert.True(t, strings.HasPrefix(out, "Based on your query 'top clients'"))
		})
	}
}
