// Package query runs the full natural-language pipeline: classify, filter,
// fetch, then summarize, tabulate and chart.
package query

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/wealth-query-agent/internal/chart"
	"github.com/wealth-query-agent/internal/fetch"
	"github.com/wealth-query-agent/internal/filter"
	"github.com/wealth-query-agent/internal/format"
	"github.com/wealth-query-agent/internal/intent"
	"github.com/wealth-query-agent/internal/metrics"
	"github.com/wealth-query-agent/internal/sanitize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FailureText is the user-visible answer for a query the pipeline could not process
const FailureText = "I'm sorry, I couldn't process your query at this time."

// Classifier produces an intent descriptor; it must not fail
type Classifier interface {
	Classify(ctx context.Context, query string) intent.Descriptor
}

// Result is the pipeline's answer to one query
type Result struct {
	Success      bool               `json:"success"`
	TextResponse string             `json:"text_response"`
	TableData    *format.Table      `json:"table_data,omitempty"`
	ChartData    *chart.Data        `json:"chart_data,omitempty"`
	Intent       *intent.Descriptor `json:"query_analysis,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	ErrorRef     string             `json:"error_ref,omitempty"`
	RequestID    string             `json:"request_id"`
	Timestamp    time.Time          `json:"timestamp"`
}

// Processor wires the pipeline stages together. It holds no per-request state.
type Processor struct {
	classifier Classifier
	compiler   *filter.Compiler
	fetcher    *fetch.Fetcher
	summarizer *format.Summarizer
	charts     *chart.Builder
	logger     *zap.Logger
}

// NewProcessor creates a Processor from its stages
func NewProcessor(classifier Classifier, compiler *filter.Compiler, fetcher *fetch.Fetcher, summarizer *format.Summarizer, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if compiler == nil {
		compiler = filter.NewCompiler(0)
	}
	return &Processor{
		classifier: classifier,
		compiler:   compiler,
		fetcher:    fetcher,
		summarizer: summarizer,
		charts:     chart.NewBuilder(compiler, logger),
		logger:     logger.Named("query"),
	}
}

// Process answers query. It never returns an error: unexpected failures,
// including panics, become a Result with Success false.
func (p *Processor) Process(ctx context.Context, query string) (res Result) {
	start := time.Now()
	requestID := uuid.NewString()
	logger := p.logger.With(zap.String("request_id", requestID))

	defer func() {
		if r := recover(); r != nil {
			res = failure(requestID, fmt.Errorf("unexpected pipeline failure: %v", r))
			logger.Error("Query pipeline panicked",
				zap.String("error_ref", res.ErrorRef),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
		metrics.ObserveQuery(time.Since(start).Seconds(), !res.Success)
	}()

	logger.Info("Processing query", zap.Int("length", len(query)))

	res, err := p.run(ctx, query)
	if err != nil {
		res = failure(requestID, err)
		logger.Error("Query pipeline failed", zap.String("error_ref", res.ErrorRef), zap.Error(err))
		return res
	}
	res.RequestID = requestID

	logger.Info("Query processed",
		zap.String("query_type", string(res.Intent.QueryType)),
		zap.String("origin", string(res.Intent.Origin)),
		zap.Int("rows", len(res.TableData.Rows)),
		zap.Duration("duration", time.Since(start)))
	return res
}

func (p *Processor) run(ctx context.Context, query string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	d := p.classifier.Classify(ctx, query)
	d.RawQuery = query
	pred := p.compiler.Compile(query)
	p.logger.Debug("Query classified",
		zap.String("query_type", string(d.QueryType)),
		zap.String("visualization", string(d.Visualization)),
		zap.Stringer("filter", pred))

	ds := p.fetcher.Fetch(ctx, d, pred)

	var (
		text  string
		table format.Table
		cd    chart.Data
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(guard("summary", func() {
		text = p.summarizer.Summarize(gctx, query, d, ds)
	}))
	g.Go(guard("table", func() {
		table = format.BuildTable(ds)
	}))
	g.Go(guard("chart", func() {
		cd = p.charts.Build(d, ds)
	}))
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return Result{
		Success:      true,
		TextResponse: text,
		TableData:    &table,
		ChartData:    &cd,
		Intent:       &d,
		Timestamp:    time.Now().UTC(),
	}, nil
}

// guard turns a panic in a fan-out stage into that stage's error
func guard(stage string, fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s stage failed: %v", stage, r)
			}
		}()
		fn()
		return nil
	}
}

// failure carries a reference code that also appears in the error log line
func failure(requestID string, err error) Result {
	return Result{
		Success:      false,
		TextResponse: FailureText,
		ErrorMessage: sanitize.Error(err),
		ErrorRef:     sanitize.Reference(),
		RequestID:    requestID,
		Timestamp:    time.Now().UTC(),
	}
}
