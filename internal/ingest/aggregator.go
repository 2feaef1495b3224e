package ingest

import (
	"fmt"
	"sort"
)

// Aggregator owns the counters and error list of one ingestion.
//
// Counters only ever grow. A question is counted as a success only once its
// commit is durable, so a failed batch has nothing to take back and the total
// is the sum of successes and failures at every point.
type Aggregator struct {
	success  int
	failure  int
	topLevel []string
	rows     []rowError
}

type rowError struct {
	row int
	msg string
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// RecordSuccess counts n durably committed questions.
func (a *Aggregator) RecordSuccess(n int) {
	if n <= 0 {
		return
	}
	a.success += n
}

// RecordFailure counts one failed row and keeps its message.
func (a *Aggregator) RecordFailure(row int, msg string) {
	a.failure++
	a.rows = append(a.rows, rowError{row: row, msg: msg})
}

// RecordAbort keeps a payload-level error. It does not touch the counters:
// an aborted payload has no rows.
func (a *Aggregator) RecordAbort(msg string) {
	a.topLevel = append(a.topLevel, msg)
}

// Total returns the number of rows accounted for so far.
func (a *Aggregator) Total() int { return a.success + a.failure }

// Finalize builds the report. Row errors are ordered by row number, keeping
// the recording order for equal rows, after any payload-level errors.
func (a *Aggregator) Finalize() Report {
	rows := make([]rowError, len(a.rows))
	copy(rows, a.rows)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].row < rows[j].row })

	errs := make([]string, 0, len(a.topLevel)+len(rows))
	errs = append(errs, a.topLevel...)
	for _, e := range rows {
		errs = append(errs, fmt.Sprintf("row %d: %s", e.row, e.msg))
	}

	return Report{
		TotalCount:   a.success + a.failure,
		SuccessCount: a.success,
		FailureCount: a.failure,
		Errors:       errs,
	}
}
