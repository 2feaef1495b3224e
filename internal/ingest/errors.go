package ingest

import (
	"github.com/cockroachdb/errors"
)

// Payload-level failures. Either one ends the ingestion before any row is
// committed and is reported as the single error of an all-zero report.
var (
	// ErrIngestionAborted marks a payload that cannot be decoded as CSV rows.
	ErrIngestionAborted = errors.New("ingestion aborted")

	// ErrEmptyPayload is returned for a payload with no data rows.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrInvalidEncoding is the cause of an abort on non UTF-8 input.
	ErrInvalidEncoding = errors.New("payload is not valid UTF-8")
)

// abort wraps a decoding failure so that it reads "ingestion aborted: <cause>"
// and matches ErrIngestionAborted with errors.Is.
func abort(cause error, hint string) error {
	err := errors.Mark(errors.Wrap(cause, "ingestion aborted"), ErrIngestionAborted)
	if hint != "" {
		err = errors.WithHint(err, hint)
	}
	return err
}

// Hints returns the user-facing hints attached to err, if any.
func Hints(err error) string {
	return errors.FlattenHints(err)
}
