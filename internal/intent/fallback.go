package intent

import "strings"

type keywordRule struct {
	keywords      []string
	queryType     QueryType
	visualization Visualization
}

// fallbackRules are evaluated in order; the first rule with any keyword present wins.
var fallbackRules = []keywordRule{
	{[]string{"top", "best", "highest", "most"}, QueryTopPerformers, VisualBar},
	{[]string{"breakup", "breakdown", "distribution"}, QueryBreakdownAnalysis, VisualPie},
	{[]string{"portfolio", "investment"}, QueryPortfolioSummary, VisualTable},
}

// Fallback is the rule-based classifier used whenever the generative service
// is unavailable or answers with something unusable. It is a pure function of
// the lower-cased query text.
func Fallback(query string) Descriptor {
	q := strings.ToLower(query)

	queryType, visualization := QueryClientInfo, VisualText
rules:
	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				queryType, visualization = rule.queryType, rule.visualization
				break rules
			}
		}
	}

	return Descriptor{
		QueryType:     queryType,
		DataSources:   []DataSource{SourceProfiles, SourceTransactions},
		Visualization: visualization,
		KeyEntities:   []string{},
		Summary:       "User query about " + string(queryType),
		Aggregations:  []string{"count", "sum"},
		RawQuery:      query,
		Origin:        OriginFallback,
	}
}
