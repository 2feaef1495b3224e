// Package ingest implements bulk question ingestion from CSV payloads.
//
// A payload flows through the pipeline in order:
//
//	ParsePayload -> Validator -> Accumulator -> BatchCommitter -> Store
//	                    |                            |
//	                    v                            v
//	                Aggregator  <-------------  FallbackCommitter
//
// Invalid rows are reported without touching the store. Valid questions are
// committed in batches; when a batch commit fails, each of its questions is
// retried in its own transaction so one bad row only costs itself.
//
// Ingester.Ingest ties the stages together and returns a Report whose total
// is always the sum of its successes and failures.
package ingest
