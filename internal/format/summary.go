// Package format turns fetched records into the text and table parts of a
// query response.
package format

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"
	"github.com/wealth-query-agent/internal/ai/router"
	"github.com/wealth-query-agent/internal/fetch"
	"github.com/wealth-query-agent/internal/intent"
	"github.com/wealth-query-agent/internal/metrics"
	"github.com/wealth-query-agent/internal/model"
	"go.uber.org/zap"
)

const defaultSummaryTimeout = 20 * time.Second

// Digest is the factual basis of a summary
type Digest struct {
	ProfileCount     int
	ProfileTotal     int64
	RiskCounts       map[string]int
	LocationCounts   map[string]int
	TransactionCount int
	TransactionTotal int64
	InvestmentTotals map[string]int64
	ManagerTotals    map[string]int64
	HasProfiles      bool
	HasTransactions  bool
}

// NewDigest computes counts, totals and distributions over a dataset
func NewDigest(ds fetch.Dataset) Digest {
	d := Digest{
		RiskCounts:       make(map[string]int),
		LocationCounts:   make(map[string]int),
		InvestmentTotals: make(map[string]int64),
		ManagerTotals:    make(map[string]int64),
	}
	if ds.HasProfiles && len(ds.Profiles) > 0 {
		d.HasProfiles = true
		d.ProfileCount = len(ds.Profiles)
		for _, p := range ds.Profiles {
			d.ProfileTotal += model.NonNegative(p.PortfolioValue)
			d.RiskCounts[orNA(string(p.RiskAppetite))]++
			d.LocationCounts[orNA(p.Location())]++
		}
	}
	if ds.HasTransactions && len(ds.Transactions) > 0 {
		d.HasTransactions = true
		d.TransactionCount = len(ds.Transactions)
		for _, t := range ds.Transactions {
			v := model.NonNegative(t.PortfolioValue)
			d.TransactionTotal += v
			d.InvestmentTotals[orNA(t.InvestmentType)] += v
			d.ManagerTotals[orNA(t.RelationshipManager)] += v
		}
	}
	return d
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the digest as the plain-text block embedded in the prompt
func (d Digest) String() string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if d.HasProfiles {
		fmt.Fprintf(buf, "Client profiles: %d\n", d.ProfileCount)
		fmt.Fprintf(buf, "Total portfolio value: %s\n", model.FormatINR(d.ProfileTotal))
		buf.WriteString("Risk distribution:")
		for _, k := range sortedKeys(d.RiskCounts) {
			fmt.Fprintf(buf, " %s=%d", k, d.RiskCounts[k])
		}
		buf.WriteString("\nLocation distribution:")
		for _, k := range sortedKeys(d.LocationCounts) {
			fmt.Fprintf(buf, " %s=%d", k, d.LocationCounts[k])
		}
		buf.WriteString("\n")
	}
	if d.HasTransactions {
		fmt.Fprintf(buf, "Investment records: %d\n", d.TransactionCount)
		fmt.Fprintf(buf, "Total invested value: %s\n", model.FormatINR(d.TransactionTotal))
		buf.WriteString("By investment type:")
		for _, k := range sortedKeys(d.InvestmentTotals) {
			fmt.Fprintf(buf, " %s=%s", k, model.FormatINR(d.InvestmentTotals[k]))
		}
		buf.WriteString("\nBy relationship manager:")
		for _, k := range sortedKeys(d.ManagerTotals) {
			fmt.Fprintf(buf, " %s=%s", k, model.FormatINR(d.ManagerTotals[k]))
		}
		buf.WriteString("\n")
	}
	if !d.HasProfiles && !d.HasTransactions {
		buf.WriteString("No matching records.\n")
	}
	return buf.String()
}

// Summarizer writes the natural-language answer for a query
type Summarizer struct {
	gen     router.Generator
	timeout time.Duration
	logger  *zap.Logger
}

// NewSummarizer creates a Summarizer. A zero timeout uses the default.
func NewSummarizer(gen router.Generator, timeout time.Duration, logger *zap.Logger) *Summarizer {
	if gen == nil {
		gen = router.Stub{}
	}
	if timeout <= 0 {
		timeout = defaultSummaryTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{gen: gen, timeout: timeout, logger: logger.Named("summary")}
}

// Summarize never fails: when the generative service does not answer, the
// templated summary is returned.
func (s *Summarizer) Summarize(ctx context.Context, query string, d intent.Descriptor, ds fetch.Dataset) string {
	digest := NewDigest(ds)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.gen.Generate(ctx, summaryPrompt(query, d, digest))
	if err == nil {
		answer = strings.TrimSpace(answer)
		if answer != "" {
			metrics.RecordSummary(metrics.SourceLLM)
			return answer
		}
		err = fmt.Errorf("empty summary")
	}

	s.logger.Warn("Text summary generation failed, using template", zap.Error(err))
	metrics.RecordSummary(metrics.SourceTemplate)
	return TemplateSummary(query, digest)
}

func summaryPrompt(query string, d intent.Descriptor, digest Digest) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("You are a wealth-management analyst. Using only the data below, write a clear, professional answer of 2 to 4 paragraphs.\n")
	buf.WriteString("Focus on key insights, numbers and actionable information. Format currency in Indian rupees.\n\n")
	fmt.Fprintf(buf, "Original query: %q\n", query)
	fmt.Fprintf(buf, "Query type: %s\n", d.QueryType)
	if d.Summary != "" {
		fmt.Fprintf(buf, "Intent: %s\n", d.Summary)
	}
	buf.WriteString("\nData summary:\n")
	buf.WriteString(digest.String())
	return buf.String()
}

// TemplateSummary is the deterministic answer chosen by which record kinds are present
func TemplateSummary(query string, digest Digest) string {
	switch {
	case digest.HasProfiles && digest.HasTransactions:
		return fmt.Sprintf("Based on your query '%s', I found %d client profiles with a combined portfolio value of %s, "+
			"backed by %d investment records totalling %s. Please check the table and chart tabs for detailed information.",
			query, digest.ProfileCount, model.FormatINR(digest.ProfileTotal),
			digest.TransactionCount, model.FormatINR(digest.TransactionTotal))
	case digest.HasProfiles:
		return fmt.Sprintf("Based on your query '%s', I found %d client profiles with a combined portfolio value of %s. "+
			"Please check the table and chart tabs for detailed information.",
			query, digest.ProfileCount, model.FormatINR(digest.ProfileTotal))
	case digest.HasTransactions:
		return fmt.Sprintf("Based on your query '%s', I found %d investment records totalling %s. "+
			"Please check the table and chart tabs for detailed information.",
			query, digest.TransactionCount, model.FormatINR(digest.TransactionTotal))
	default:
		return fmt.Sprintf("Based on your query '%s', I could not find matching records in our wealth management system.", query)
	}
}
