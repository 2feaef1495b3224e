package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/JonMunkholm/questionbank/internal/config"
	"github.com/JonMunkholm/questionbank/internal/ingest"
)

const (
	occurrenceCount = 2
	startUpTimeOut  = 120 * time.Second
)

// setupTestPool starts a PostgreSQL container and returns a connected pool.
// The container and pool are released when the test ends.
func setupTestPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("questionbank_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(occurrenceCount).
				WithStartupTimeout(startUpTimeOut),
		),
	)
	require.NoError(t, err, "Failed to start postgres container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pgContainer) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	pool, err := Connect(ctx, config.DatabaseConfig{URL: connStr, MaxConns: 4, MinConns: 1})
	require.NoError(t, err, "Failed to connect")
	t.Cleanup(pool.Close)

	return pool
}

func questions(n, firstRow int) []ingest.Question {
	qs := make([]ingest.Question, n)
	for i := range qs {
		qs[i] = ingest.Question{
			Row:      firstRow + i,
			Content:  fmt.Sprintf("Question %d?", firstRow+i),
			Company:  "Acme",
			Category: "Backend",
			Year:     "2024",
		}
	}
	return qs
}

func TestQuestionStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := setupTestPool(ctx, t)

	for _, useCopy := range []bool{true, false} {
		name := "insert"
		if useCopy {
			name = "copy"
		}

		t.Run(name, func(t *testing.T) {
			_, err := pool.Exec(ctx, `DROP TABLE IF EXISTS questions`)
			require.NoError(t, err)

			s := NewQuestionStore(pool, useCopy)
			require.NoError(t, s.EnsureSchema(ctx, true))
			require.NoError(t, s.EnsureSchema(ctx, true), "EnsureSchema must be repeatable")

			t.Run("batch commit stores every question", func(t *testing.T) {
				runID := uuid.New()
				runCtx := ingest.ContextWithRunID(ctx, runID)

				require.NoError(t, s.CommitBatch(runCtx, questions(5, 2)))

				n, err := s.CountByIngest(ctx, runID)
				require.NoError(t, err)
				assert.Equal(t, int64(5), n)
			})

			t.Run("failing batch stores nothing", func(t *testing.T) {
				before, err := s.Count(ctx)
				require.NoError(t, err)

				qs := questions(3, 100)
				qs = append(qs, questions(1, 2)...) // duplicates stored content

				err = s.CommitBatch(ctx, qs)
				require.Error(t, err)
				assert.True(t, IsUniqueViolation(err))
				assert.Contains(t, err.Error(), "questions_content_key")

				after, err := s.Count(ctx)
				require.NoError(t, err)
				assert.Equal(t, before, after, "a failed batch must be rolled back")
			})

			t.Run("single commit is isolated", func(t *testing.T) {
				err := s.CommitOne(ctx, questions(1, 2)[0])
				require.Error(t, err)
				assert.True(t, strings.HasPrefix(err.Error(), "duplicate key value violates unique constraint"), err.Error())

				require.NoError(t, s.CommitOne(ctx, questions(1, 500)[0]))
			})

			t.Run("commit without run id stores null ingest id", func(t *testing.T) {
				require.NoError(t, s.CommitOne(ctx, questions(1, 600)[0]))

				var nulls int64
				err := pool.QueryRow(ctx, `SELECT count(*) FROM questions WHERE ingest_id IS NULL AND content = $1`, "Question 600?").Scan(&nulls)
				require.NoError(t, err)
				assert.Equal(t, int64(1), nulls)
			})
		})
	}
}

func TestIngester_WithPostgres_FallsBackOnDuplicate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := setupTestPool(ctx, t)

	s := NewQuestionStore(pool, true)
	require.NoError(t, s.EnsureSchema(ctx, true))

	// The third data row repeats the first; the unique index rejects it.
	var b strings.Builder
	b.WriteString("content,category,company,questionAt\n")
	for i := 1; i <= 10; i++ {
		content := fmt.Sprintf("Question %d?", i)
		if i == 3 {
			content = "Question 1?"
		}
		fmt.Fprintf(&b, "%s,Backend,Acme,2024\n", content)
	}

	opts := ingest.DefaultOptions()
	opts.BatchSize = 100
	report := ingest.New(s, opts).Ingest(ctx, strings.NewReader(b.String()))

	assert.Equal(t, 10, report.TotalCount)
	assert.Equal(t, 9, report.SuccessCount)
	assert.Equal(t, 1, report.FailureCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, `row 4: duplicate key value violates unique constraint "questions_content_key"`, report.Errors[0])

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
}
