package ingest

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/JonMunkholm/questionbank/internal/config"
	"github.com/JonMunkholm/questionbank/internal/logging"
)

// Options configures an Ingester.
type Options struct {
	BatchSize int
	Rules     RuleSet
	Parse     ParseOptions
}

// DefaultOptions returns batches of 100 with the stock rules.
func DefaultOptions() Options {
	return Options{
		BatchSize: DefaultBatchSize,
		Rules:     DefaultRuleSet(),
		Parse:     ParseOptions{LazyQuotes: true},
	}
}

// OptionsFromConfig builds ingester options from the ingest settings and an
// optional rule profile.
func OptionsFromConfig(cfg config.IngestConfig, profile *config.RuleProfile) Options {
	return Options{
		BatchSize: cfg.BatchSize,
		Rules:     RuleSetFromConfig(cfg, profile),
		Parse:     ParseOptions{LazyQuotes: cfg.LazyQuotes},
	}
}

// Ingester runs the ingestion pipeline against a Store.
// One Ingester may serve many concurrent calls; each call keeps its own state.
type Ingester struct {
	store Store
	opts  Options
}

// New creates an Ingester.
func New(store Store, opts Options) *Ingester {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Ingester{store: store, opts: opts}
}

// Ingest parses, validates and commits every row of the payload and reports
// the outcome. It never fails: every problem ends up in the report.
//
// Rows are processed in order on the calling goroutine. ctx is handed to the
// store; once it is done, remaining commits fail and their rows are reported
// as failures.
func (i *Ingester) Ingest(ctx context.Context, payload io.Reader) Report {
	runID := RunIDFromContext(ctx)
	if runID == uuid.Nil {
		runID = uuid.New()
		ctx = ContextWithRunID(ctx, runID)
	}
	logger := logging.WithFields(ctx, "run_id", runID.String())
	start := time.Now()

	agg := NewAggregator()

	p, err := ParsePayload(payload, i.opts.Parse)
	if err != nil {
		agg.RecordAbort(err.Error())
		if errors.Is(err, ErrEmptyPayload) {
			logger.Info("nothing to ingest", "error", err)
		} else {
			logger.Warn("ingestion aborted", "error", err, "hint", Hints(err))
		}
		return agg.Finalize()
	}

	validator := NewValidator(i.opts.Rules, p.Columns)
	fallback := NewFallbackCommitter(i.store, agg, logger)
	committer := NewBatchCommitter(i.store, fallback, agg, logger)
	acc := NewAccumulator(i.opts.BatchSize, committer.Commit)

	for _, row := range p.Rows {
		q, err := validator.Validate(row)
		if err != nil {
			agg.RecordFailure(row.Number, err.Error())
			continue
		}
		acc.Offer(ctx, q)
	}
	if n := acc.Pending(); n > 0 {
		logger.Debug("flushing final batch", "size", n)
	}
	acc.Flush(ctx)

	if total := agg.Total(); total != len(p.Rows) {
		logger.Error("row accounting mismatch", "rows", len(p.Rows), "total", total)
	}
	report := agg.Finalize()

	logger.Info("ingestion finished",
		"total", report.TotalCount,
		"succeeded", report.SuccessCount,
		"failed", report.FailureCount,
		"duration", time.Since(start),
	)

	return report
}
