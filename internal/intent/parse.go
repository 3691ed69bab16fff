package intent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wealth-query-agent/internal/jsonx"
)

// ErrMalformed is returned when the generative service's answer cannot be
// turned into a descriptor.
var ErrMalformed = errors.New("malformed classification")

const (
	jsonFence = "```json"
	bareFence = "```"
)

// extractJSON returns the interior of a ```json fence, else of a bare ``` fence,
// else the trimmed text itself.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	for _, fence := range []string{jsonFence, bareFence} {
		start := strings.Index(text, fence)
		if start < 0 {
			continue
		}
		body := text[start+len(fence):]
		if end := strings.Index(body, bareFence); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	return text
}

// rawDescriptor is the wire shape requested from the generative service.
type rawDescriptor struct {
	QueryType     *string  `json:"query_type"`
	DataSources   []string `json:"data_sources"`
	Visualization *string  `json:"visualization_type"`
	KeyEntities   []string `json:"key_entities"`
	IntentSummary string   `json:"intent_summary"`
	Aggregations  []string `json:"suggested_aggregations"`
}

// parseDescriptor decodes and normalizes a classification answer. Unknown enum
// values and missing required fields are ErrMalformed. key_entities,
// intent_summary and suggested_aggregations are optional and take the same
// defaults as the rule-based fallback.
func parseDescriptor(answer, query string) (Descriptor, error) {
	body := extractJSON(answer)
	if body == "" {
		return Descriptor{}, fmt.Errorf("%w: empty answer", ErrMalformed)
	}

	var raw rawDescriptor
	if err := jsonx.UnmarshalFromString(body, &raw); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if raw.QueryType == nil {
		return Descriptor{}, fmt.Errorf("%w: missing query_type", ErrMalformed)
	}
	queryType, ok := ParseQueryType(*raw.QueryType)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: unknown query_type %q", ErrMalformed, *raw.QueryType)
	}

	if raw.Visualization == nil {
		return Descriptor{}, fmt.Errorf("%w: missing visualization_type", ErrMalformed)
	}
	visualization, ok := ParseVisualization(*raw.Visualization)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: unknown visualization_type %q", ErrMalformed, *raw.Visualization)
	}

	var sources []DataSource
	seen := make(map[DataSource]bool)
	for _, s := range raw.DataSources {
		src, ok := ParseDataSource(s)
		if !ok || seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return Descriptor{}, fmt.Errorf("%w: no usable data_sources in %v", ErrMalformed, raw.DataSources)
	}

	entities := raw.KeyEntities
	if entities == nil {
		entities = []string{}
	}
	aggregations := raw.Aggregations
	if len(aggregations) == 0 {
		aggregations = []string{"count", "sum"}
	}
	summary := strings.TrimSpace(raw.IntentSummary)
	if summary == "" {
		summary = "User query about " + string(queryType)
	}

	return Descriptor{
		QueryType:     queryType,
		DataSources:   sources,
		Visualization: visualization,
		KeyEntities:   entities,
		Summary:       summary,
		Aggregations:  aggregations,
		RawQuery:      query,
		Origin:        OriginLLM,
	}, nil
}
