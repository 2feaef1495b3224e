package ingest

import "context"

// RawRow is one parsed data row.
// Number is the row's position in the payload, counting the header as row 1,
// so the first data row is row 2. That is the number users see in their
// spreadsheet and the one every diagnostic refers to.
type RawRow struct {
	Number int
	Fields []string
}

// Question is a validated record ready to be committed.
// All text fields are trimmed and within the configured limits.
// Row is carried for diagnostics only; the store assigns identity on commit.
type Question struct {
	Row      int
	Content  string
	Company  string
	Category string
	Year     string
}

// Batch is an ordered group of questions committed as one unit.
type Batch struct {
	Questions []Question
}

// Len returns the number of questions in the batch.
func (b Batch) Len() int { return len(b.Questions) }

// FirstRow returns the row number of the first question, or 0 for an empty batch.
func (b Batch) FirstRow() int {
	if len(b.Questions) == 0 {
		return 0
	}
	return b.Questions[0].Row
}

// LastRow returns the row number of the last question, or 0 for an empty batch.
func (b Batch) LastRow() int {
	if len(b.Questions) == 0 {
		return 0
	}
	return b.Questions[len(b.Questions)-1].Row
}

// Report is the outcome of one ingestion call.
//
// TotalCount always equals SuccessCount + FailureCount. Errors are ordered
// by ascending row number, with payload-level errors first.
type Report struct {
	TotalCount   int      `json:"totalCount"`
	SuccessCount int      `json:"successCount"`
	FailureCount int      `json:"failureCount"`
	Errors       []string `json:"errors"`
}

// Store persists questions. Each call opens and closes its own transaction.
//
// CommitBatch must be atomic: either every question is stored or none is.
// CommitOne must not be affected by, nor affect, any other commit.
type Store interface {
	CommitBatch(ctx context.Context, questions []Question) error
	CommitOne(ctx context.Context, q Question) error
}
