package ingest

import (
	"context"
	"log/slog"
)

// BatchCommitter commits each batch atomically and sends a failed batch to
// the fallback committer. A failed batch is never retried as a whole.
type BatchCommitter struct {
	store    Store
	fallback *FallbackCommitter
	agg      *Aggregator
	logger   *slog.Logger
}

// NewBatchCommitter creates a committer reporting into agg.
func NewBatchCommitter(store Store, fallback *FallbackCommitter, agg *Aggregator, logger *slog.Logger) *BatchCommitter {
	return &BatchCommitter{store: store, fallback: fallback, agg: agg, logger: logger}
}

// Commit persists the batch in one transaction. Successes are recorded only
// after the store confirms the commit.
func (c *BatchCommitter) Commit(ctx context.Context, batch Batch) {
	if batch.Len() == 0 {
		return
	}

	err := c.store.CommitBatch(ctx, batch.Questions)
	if err == nil {
		c.agg.RecordSuccess(batch.Len())
		c.logger.Debug("batch committed",
			"first_row", batch.FirstRow(),
			"last_row", batch.LastRow(),
			"size", batch.Len(),
		)
		return
	}

	c.logger.Warn("batch commit failed, committing rows individually",
		"first_row", batch.FirstRow(),
		"last_row", batch.LastRow(),
		"size", batch.Len(),
		"error", err,
	)
	c.fallback.CommitIndividually(ctx, batch.Questions)
}

// FallbackCommitter commits questions one at a time, each in its own
// transaction, so one bad question cannot undo another.
type FallbackCommitter struct {
	store  Store
	agg    *Aggregator
	logger *slog.Logger
}

// NewFallbackCommitter creates a fallback committer reporting into agg.
func NewFallbackCommitter(store Store, agg *Aggregator, logger *slog.Logger) *FallbackCommitter {
	return &FallbackCommitter{store: store, agg: agg, logger: logger}
}

// CommitIndividually commits every question separately. Failures are
// recorded against the question's own row number.
func (c *FallbackCommitter) CommitIndividually(ctx context.Context, questions []Question) {
	failed := 0
	for _, q := range questions {
		if err := c.store.CommitOne(ctx, q); err != nil {
			c.agg.RecordFailure(q.Row, err.Error())
			failed++
			continue
		}
		c.agg.RecordSuccess(1)
	}

	c.logger.Info("fallback commit finished",
		"rows", len(questions),
		"committed", len(questions)-failed,
		"failed", failed,
	)
}
