package web

import (
	"context"

	"github.com/google/uuid"

	"github.com/JonMunkholm/questionbank/internal/ingest"
)

// withIngestRun tags ctx with a fresh ingestion run id. The id is returned to
// the client in X-Ingest-ID and stored with every committed question.
func withIngestRun(ctx context.Context) (context.Context, uuid.UUID) {
	id := uuid.New()
	return ingest.ContextWithRunID(ctx, id), id
}
