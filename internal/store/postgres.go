// Package store persists ingested questions in PostgreSQL.
//
// Every commit runs in its own transaction taken from the pool, so a failed
// batch leaves nothing behind and one question's failure never reaches
// another question's transaction.
package store

import (
	"context"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/questionbank/internal/config"
	"github.com/JonMunkholm/questionbank/internal/ingest"
)

const tableName = "questions"

var questionColumns = []string{"content", "company", "category", "question_at", "ingest_id"}

const insertQuestionSQL = `INSERT INTO questions (content, company, category, question_at, ingest_id)
VALUES ($1, $2, $3, $4, $5)`

// QuestionStore writes questions through a pgx connection pool.
type QuestionStore struct {
	pool    *pgxpool.Pool
	useCopy bool
}

var _ ingest.Store = (*QuestionStore)(nil)

// NewQuestionStore creates a store on pool. With useCopy set, batches are
// written with the COPY protocol; otherwise with batched INSERTs.
func NewQuestionStore(pool *pgxpool.Pool, useCopy bool) *QuestionStore {
	return &QuestionStore{pool: pool, useCopy: useCopy}
}

// Connect opens a pool configured from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database URL")
	}

	// Unset values keep the pgxpool defaults.
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	return pool, nil
}

// DatabaseName returns the database named in a connection URL, for logging.
func DatabaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// EnsureSchema creates the questions table when it does not exist yet.
// With uniqueContent, question content must be unique across the table.
func (s *QuestionStore) EnsureSchema(ctx context.Context, uniqueContent bool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			id          BIGSERIAL PRIMARY KEY,
			content     TEXT NOT NULL,
			company     TEXT NOT NULL,
			category    TEXT NOT NULL,
			question_at CHAR(4) NOT NULL,
			ingest_id   UUID,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS questions_ingest_id_idx ON questions (ingest_id)`,
	}
	if uniqueContent {
		stmts = append(stmts, `CREATE UNIQUE INDEX IF NOT EXISTS questions_content_key ON questions (content)`)
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "ensure schema")
		}
	}
	return nil
}

// CommitBatch stores all questions in one transaction, or none of them.
func (s *QuestionStore) CommitBatch(ctx context.Context, questions []ingest.Question) error {
	if len(questions) == 0 {
		return nil
	}
	ingestID := ingestIDFrom(ctx)

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if s.useCopy {
			return copyQuestions(ctx, tx, questions, ingestID)
		}
		return insertQuestions(ctx, tx, questions, ingestID)
	})
	return describe(err)
}

// CommitOne stores a single question in its own transaction.
func (s *QuestionStore) CommitOne(ctx context.Context, q ingest.Question) error {
	ingestID := ingestIDFrom(ctx)

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertQuestionSQL, q.Content, q.Company, q.Category, q.Year, ingestID)
		return err
	})
	return describe(err)
}

func copyQuestions(ctx context.Context, tx pgx.Tx, questions []ingest.Question, ingestID pgtype.UUID) error {
	n, err := tx.CopyFrom(ctx, pgx.Identifier{tableName}, questionColumns,
		pgx.CopyFromSlice(len(questions), func(i int) ([]any, error) {
			q := questions[i]
			return []any{q.Content, q.Company, q.Category, q.Year, ingestID}, nil
		}),
	)
	if err != nil {
		return err
	}
	if int(n) != len(questions) {
		return errors.Newf("copied %d of %d questions", n, len(questions))
	}
	return nil
}

func insertQuestions(ctx context.Context, tx pgx.Tx, questions []ingest.Question, ingestID pgtype.UUID) error {
	b := &pgx.Batch{}
	for _, q := range questions {
		b.Queue(insertQuestionSQL, q.Content, q.Company, q.Category, q.Year, ingestID)
	}
	return tx.SendBatch(ctx, b).Close()
}

// Ping checks that the database is reachable.
func (s *QuestionStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Count returns the number of stored questions.
func (s *QuestionStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM questions`).Scan(&n)
	return n, errors.Wrap(err, "count questions")
}

// CountByIngest returns the number of questions stored by one ingestion run.
func (s *QuestionStore) CountByIngest(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM questions WHERE ingest_id = $1`, pgUUID(id)).Scan(&n)
	return n, errors.Wrap(err, "count questions by ingest")
}

func ingestIDFrom(ctx context.Context) pgtype.UUID {
	return pgUUID(ingest.RunIDFromContext(ctx))
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: [16]byte(id), Valid: id != uuid.Nil}
}

// commitError reads as the server's message alone, so row errors in a report
// look like `duplicate key value violates unique constraint "questions_content_key"`.
// The *pgconn.PgError stays reachable through errors.As.
type commitError struct {
	pg *pgconn.PgError
}

func (e *commitError) Error() string { return e.pg.Message }
func (e *commitError) Unwrap() error { return e.pg }

// describe turns a failed commit into the error reported for its rows.
func describe(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &commitError{pg: pgErr}
	}
	return err
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
