package ingest

import (
	"context"
	"testing"
)

func TestAccumulator(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		offers    int
		wantSizes []int
	}{
		{"nothing offered", 3, 0, nil},
		{"one partial batch", 3, 2, []int{2}},
		{"exactly full", 3, 3, []int{3}},
		{"full plus remainder", 3, 7, []int{3, 3, 1}},
		{"size one", 1, 3, []int{1, 1, 1}},
		{"zero size uses default", 0, 150, []int{100, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var batches []Batch
			acc := NewAccumulator(tt.size, func(_ context.Context, b Batch) {
				batches = append(batches, b)
			})

			ctx := context.Background()
			for i := 0; i < tt.offers; i++ {
				acc.Offer(ctx, Question{Row: i + 2})
			}
			acc.Flush(ctx)
			acc.Flush(ctx) // second flush emits nothing

			if len(batches) != len(tt.wantSizes) {
				t.Fatalf("emitted %d batches, want %d", len(batches), len(tt.wantSizes))
			}

			next := 2
			for i, b := range batches {
				if b.Len() != tt.wantSizes[i] {
					t.Errorf("batch %d size = %d, want %d", i, b.Len(), tt.wantSizes[i])
				}
				for _, q := range b.Questions {
					if q.Row != next {
						t.Errorf("batch %d has row %d, want %d", i, q.Row, next)
					}
					next++
				}
			}
			if next-2 != tt.offers {
				t.Errorf("emitted %d questions, want %d", next-2, tt.offers)
			}
			if acc.Pending() != 0 {
				t.Errorf("Pending() = %d after flush", acc.Pending())
			}
		})
	}
}

func TestAccumulator_EmittedBatchIsNotReused(t *testing.T) {
	var batches []Batch
	acc := NewAccumulator(2, func(_ context.Context, b Batch) {
		batches = append(batches, b)
	})

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		acc.Offer(ctx, Question{Row: i + 2})
	}

	if batches[0].FirstRow() != 2 || batches[0].LastRow() != 3 {
		t.Errorf("first batch rows = %d..%d, want 2..3", batches[0].FirstRow(), batches[0].LastRow())
	}
	if batches[1].FirstRow() != 4 || batches[1].LastRow() != 5 {
		t.Errorf("second batch rows = %d..%d, want 4..5", batches[1].FirstRow(), batches[1].LastRow())
	}
}
