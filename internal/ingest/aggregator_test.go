package ingest

import (
	"strings"
	"testing"
)

func TestAggregator_Finalize(t *testing.T) {
	agg := NewAggregator()

	agg.RecordSuccess(3)
	agg.RecordFailure(9, "content is required")
	agg.RecordFailure(4, "year is required")
	agg.RecordSuccess(0)
	agg.RecordSuccess(-2)
	agg.RecordFailure(4, "second message for row 4")
	agg.RecordSuccess(1)

	if agg.Total() != 7 {
		t.Errorf("Total() = %d, want 7", agg.Total())
	}

	r := agg.Finalize()
	if r.TotalCount != 7 || r.SuccessCount != 4 || r.FailureCount != 3 {
		t.Errorf("Finalize() counts = %+v", r)
	}

	want := []string{
		"row 4: year is required",
		"row 4: second message for row 4",
		"row 9: content is required",
	}
	if strings.Join(r.Errors, "\n") != strings.Join(want, "\n") {
		t.Errorf("Errors = %q, want %q", r.Errors, want)
	}
}

func TestAggregator_AbortComesFirstAndKeepsZeroTotals(t *testing.T) {
	agg := NewAggregator()
	agg.RecordAbort("empty payload")

	r := agg.Finalize()
	if r.TotalCount != 0 || r.SuccessCount != 0 || r.FailureCount != 0 {
		t.Errorf("counts = %+v, want zeros", r)
	}
	if len(r.Errors) != 1 || r.Errors[0] != "empty payload" {
		t.Errorf("Errors = %q, want [\"empty payload\"]", r.Errors)
	}
}

func TestAggregator_FinalizeIsRepeatable(t *testing.T) {
	agg := NewAggregator()
	agg.RecordFailure(5, "b")
	agg.RecordFailure(2, "a")

	first := agg.Finalize()
	second := agg.Finalize()

	if strings.Join(first.Errors, ",") != strings.Join(second.Errors, ",") {
		t.Errorf("Finalize() changed between calls: %q vs %q", first.Errors, second.Errors)
	}
}

func TestAggregator_EmptyReportHasNonNilErrors(t *testing.T) {
	r := NewAggregator().Finalize()
	if r.Errors == nil {
		t.Error("Errors is nil, want empty slice")
	}
}
