package sam

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestTranscriptApplyInsertAndDelete(t *testing.T) {
	text := newFakeText("hello world")
	tr := NewTranscript()
	tr.Enqueue(&Change{Kind: ChangeDelete, Range: Range{0, 6}})
	tr.Enqueue(&Change{Kind: ChangeInsert, Range: Range{11, 11}, Data: []byte("!")})
	if err := tr.Apply(text); err != nil {
		t.Fatal(err)
	}
	if got := string(text.Snapshot()); got != "world!" {
		t.Fatalf("got %q, want %q", got, "world!")
	}
}

func TestTranscriptApplyReplace(t *testing.T) {
	text := newFakeText("hello world")
	tr := NewTranscript()
	tr.Enqueue(&Change{Kind: ChangeBoth, Range: Range{0, 5}, Data: []byte("bye")})
	if err := tr.Apply(text); err != nil {
		t.Fatal(err)
	}
	if got := string(text.Snapshot()); got != "bye world" {
		t.Fatalf("got %q, want %q", got, "bye world")
	}
}

func TestTranscriptConflict(t *testing.T) {
	tr := NewTranscript()
	tr.Enqueue(&Change{Kind: ChangeDelete, Range: Range{0, 5}})
	tr.Enqueue(&Change{Kind: ChangeDelete, Range: Range{3, 8}})
	if tr.Err == nil {
		t.Fatal("expected conflict error")
	}
	var e *Error
	if tr.Err != nil {
		e = tr.Err.(*Error)
	}
	if e.Kind != ErrConflict {
		t.Fatalf("got error kind %v, want ErrConflict", e.Kind)
	}
}

func TestTranscriptNonOverlappingOutOfOrder(t *testing.T) {
	tr := NewTranscript()
	tr.Enqueue(&Change{Kind: ChangeDelete, Range: Range{10, 15}})
	tr.Enqueue(&Change{Kind: ChangeDelete, Range: Range{0, 5}})
	if tr.Err != nil {
		t.Fatalf("unexpected conflict: %v", tr.Err)
	}
	changes := tr.Changes()
	if len(changes) != 2 || changes[0].Range.Start != 0 || changes[1].Range.Start != 10 {
		t.Fatalf("Changes() not sorted: %+v", changes)
	}
}

func TestTranscriptChangesReturnsAscendingOrder(t *testing.T) {
	tr := NewTranscript()
	tr.Enqueue(&Change{Kind: ChangeDelete, Range: Range{20, 25}})
	tr.Enqueue(&Change{Kind: ChangeDelete, Range: Range{0, 5}})
	tr.Enqueue(&Change{Kind: ChangeInsert, Range: Range{10, 10}, Data: []byte("x")})
	if tr.Err != nil {
		t.Fatalf("unexpected conflict: %v", tr.Err)
	}

	want := []*Change{
		{Kind: ChangeDelete, Range: Range{0, 5}},
		{Kind: ChangeInsert, Range: Range{10, 10}, Data: []byte("x")},
		{Kind: ChangeDelete, Range: Range{20, 25}},
	}
	got := tr.Changes()
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Change{}, "next")); diff != "" {
		t.Fatalf("Changes() mismatch (-want +got):\n%s", diff)
	}
}

func TestTranscriptFastPathChecksBothNeighbors(t *testing.T) {
	tr := NewTranscript()
	// [20,25) lands alone first, then [0,5) is enqueued out of order and
	// becomes the new head, leaving latest pointing at a non-tail node
	// with a live .next. A naive "insert right after latest" fast path
	// would then slot [6,24) in between without ever comparing it to
	// [20,25), missing the overlap.
	tr.Enqueue(&Change{Kind: ChangeDelete, Range: Range{20, 25}})
	tr.Enqueue(&Change{Kind: ChangeDelete, Range: Range{0, 5}})
	if tr.Err != nil {
		t.Fatalf("unexpected conflict: %v", tr.Err)
	}
	tr.Enqueue(&Change{Kind: ChangeDelete, Range: Range{6, 24}})
	if tr.Err == nil {
		t.Fatal("expected conflict: [6,24) overlaps [20,25)")
	}
}

func TestTranscriptEmptyRangeInsertsAtSamePointConflict(t *testing.T) {
	tr := NewTranscript()
	tr.Enqueue(&Change{Kind: ChangeInsert, Range: Range{5, 5}, Data: []byte("a")})
	tr.Enqueue(&Change{Kind: ChangeInsert, Range: Range{5, 5}, Data: []byte("b")})
	if tr.Err == nil {
		t.Fatal("expected conflict: two inserts at the same empty point")
	}
}

func TestTranscriptReset(t *testing.T) {
	tr := NewTranscript()
	tr.Enqueue(&Change{Kind: ChangeDelete, Range: Range{0, 1}})
	if tr.Empty() {
		t.Fatal("expected non-empty transcript")
	}
	tr.Reset()
	if !tr.Empty() || tr.Err != nil {
		t.Fatal("Reset did not clear state")
	}
}

func TestTranscriptReanchorSelectionAfterInsert(t *testing.T) {
	text := newFakeText("hello world")
	sel := &fakeSelection{rng: Range{0, 0}}
	tr := NewTranscript()
	tr.Enqueue(&Change{Kind: ChangeInsert, Sel: sel, Range: Range{0, 0}, Data: []byte("XX")})
	if err := tr.Apply(text); err != nil {
		t.Fatal(err)
	}
	if sel.Range() != (Range{2, 2}) {
		t.Fatalf("selection re-anchor = %+v, want {2 2}", sel.Range())
	}
}

func TestTranscriptReanchorSelectionAfterDelete(t *testing.T) {
	text := newFakeText("hello world")
	sel := &fakeSelection{rng: Range{0, 5}}
	tr := NewTranscript()
	tr.Enqueue(&Change{Kind: ChangeDelete, Sel: sel, Range: Range{0, 5}})
	if err := tr.Apply(text); err != nil {
		t.Fatal(err)
	}
	if sel.Range() != (Range{0, 0}) {
		t.Fatalf("selection re-anchor = %+v, want {0 0}", sel.Range())
	}
}
