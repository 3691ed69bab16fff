package intent

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/wealth-query-agent/internal/ai/router"
	"github.com/wealth-query-agent/internal/cache"
	"github.com/wealth-query-agent/internal/jsonx"
	"github.com/wealth-query-agent/internal/metrics"
	"go.uber.org/zap"
)

const defaultClassifyTimeout = 10 * time.Second

const classificationPrompt = `You are a financial data analyst for a wealth-management firm. Analyze this query and determine:
1. What type of information is being requested
2. Which data source(s) to read ("profiles" for client profiles, "transactions" for investment records)
3. What kind of visualization would be most appropriate
4. Key entities mentioned (clients, portfolios, managers, investment types)

Query: %q

Respond with only a JSON object:
{
  "query_type": "portfolio_summary|top_performers|breakdown_analysis|client_info|transaction_data",
  "data_sources": ["profiles", "transactions"],
  "visualization_type": "bar|pie|line|table|text",
  "key_entities": ["entity1", "entity2"],
  "intent_summary": "Brief description of what the user wants",
  "suggested_aggregations": ["sum", "count", "average", "group_by"]
}`

// Classifier maps raw query text to a Descriptor using a generative service,
// falling back to keyword rules when the service fails.
type Classifier struct {
	gen     router.Generator
	cache   *cache.L1Cache
	timeout time.Duration
	logger  *zap.Logger

	requestCount  atomic.Int64
	fallbackCount atomic.Int64
	cacheHits     atomic.Int64
}

// Option configures a Classifier
type Option func(*Classifier)

// WithTimeout bounds each classification call
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCache enables caching of service-derived descriptors
func WithCache(l1 *cache.L1Cache) Option {
	return func(c *Classifier) { c.cache = l1 }
}

// NewClassifier creates a classifier backed by gen
func NewClassifier(gen router.Generator, logger *zap.Logger, opts ...Option) *Classifier {
	if gen == nil {
		gen = router.Stub{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Classifier{
		gen:     gen,
		timeout: defaultClassifyTimeout,
		logger:  logger.Named("intent"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify never fails: any service, parse or validation error yields the
// rule-based descriptor.
func (c *Classifier) Classify(ctx context.Context, query string) Descriptor {
	c.requestCount.Add(1)

	key := cacheKey(query)
	if d, ok := c.lookup(ctx, key); ok {
		c.cacheHits.Add(1)
		metrics.RecordClassification(metrics.SourceCache)
		d.RawQuery = query
		d.Origin = OriginCache
		return d
	}

	d, err := c.classifyWithLLM(ctx, query)
	if err != nil {
		c.fallbackCount.Add(1)
		c.logger.Warn("LLM classification failed, using fallback", zap.Error(err))
		metrics.RecordClassification(metrics.SourceFallback)
		return Fallback(query)
	}

	metrics.RecordClassification(metrics.SourceLLM)
	c.logger.Debug("LLM classified intent",
		zap.String("query_type", string(d.QueryType)),
		zap.String("visualization", string(d.Visualization)),
		zap.Any("data_sources", d.DataSources))
	c.store(ctx, key, d)
	return d
}

func (c *Classifier) classifyWithLLM(ctx context.Context, query string) (Descriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	answer, err := c.gen.Generate(ctx, fmt.Sprintf(classificationPrompt, query))
	if err != nil {
		return Descriptor{}, err
	}
	return parseDescriptor(answer, query)
}

func (c *Classifier) lookup(ctx context.Context, key string) (Descriptor, bool) {
	if c.cache == nil {
		return Descriptor{}, false
	}
	data, ok := c.cache.Get(ctx, key)
	if !ok {
		return Descriptor{}, false
	}
	var d Descriptor
	if err := jsonx.Unmarshal(data, &d); err != nil {
		c.logger.Warn("Discarding unreadable cached intent", zap.Error(err))
		_ = c.cache.Delete(ctx, key)
		return Descriptor{}, false
	}
	return d, true
}

// store caches only service-derived descriptors; fallback results are cheap to recompute.
func (c *Classifier) store(ctx context.Context, key string, d Descriptor) {
	if c.cache == nil {
		return
	}
	data, err := jsonx.Marshal(d)
	if err != nil {
		c.logger.Warn("Failed to encode intent for cache", zap.Error(err))
		return
	}
	c.cache.Set(ctx, key, data)
}

// Stats returns request, fallback and cache-hit counts
func (c *Classifier) Stats() (requests, fallbacks, cacheHits int64) {
	return c.requestCount.Load(), c.fallbackCount.Load(), c.cacheHits.Load()
}

func cacheKey(query string) string {
	return "intent:" + strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
