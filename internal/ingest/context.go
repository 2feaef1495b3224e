package ingest

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxKeyRunID contextKey = "ingest_run_id"

// ContextWithRunID tags ctx with the id of the ingestion run it belongs to.
// Stores use it to stamp committed rows with their ingestion.
func ContextWithRunID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKeyRunID, id)
}

// RunIDFromContext returns the ingestion run id, or uuid.Nil when ctx has none.
func RunIDFromContext(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(ctxKeyRunID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}
