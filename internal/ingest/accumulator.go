package ingest

import "context"

// DefaultBatchSize is used when no positive batch size is configured.
const DefaultBatchSize = 100

// Accumulator groups validated questions into batches of a fixed size and
// hands each full batch to its sink. It keeps row order and never drops or
// duplicates a question.
type Accumulator struct {
	size    int
	current []Question
	sink    func(context.Context, Batch)
}

// NewAccumulator creates an accumulator emitting batches of size questions.
func NewAccumulator(size int, sink func(context.Context, Batch)) *Accumulator {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Accumulator{
		size:    size,
		current: make([]Question, 0, size),
		sink:    sink,
	}
}

// Offer appends q to the open batch, emitting it once it is full.
func (a *Accumulator) Offer(ctx context.Context, q Question) {
	a.current = append(a.current, q)
	if len(a.current) >= a.size {
		a.emit(ctx)
	}
}

// Flush emits the partially filled batch. An empty batch is not emitted.
func (a *Accumulator) Flush(ctx context.Context) {
	if len(a.current) == 0 {
		return
	}
	a.emit(ctx)
}

// Pending returns the number of questions waiting in the open batch.
func (a *Accumulator) Pending() int { return len(a.current) }

func (a *Accumulator) emit(ctx context.Context) {
	batch := Batch{Questions: a.current}
	a.current = make([]Question, 0, a.size)
	a.sink(ctx, batch)
}
