package sam

import "sort"

// ChangeKind tags a Change as an insertion, a deletion, or a replacement
// (delete-then-insert in one slot).
type ChangeKind int

const (
	ChangeInsert ChangeKind = 1 << 0
	ChangeDelete ChangeKind = 1 << 1
	ChangeBoth   ChangeKind = ChangeInsert | ChangeDelete
)

// Change is one deferred edit queued against a file's Transcript. Data is
// the bytes inserted (repeated Count times); Range is always expressed
// relative to the text as it stood before any Change in the Transcript
// was applied.
type Change struct {
	Kind  ChangeKind
	Win   Window
	Sel   Selection
	Range Range
	Data  []byte
	Count int

	next *Change
}

// Transcript accumulates Changes for one file across a single top-level
// Exec call, validates that their ranges are pairwise non-overlapping,
// and applies them atomically.
//
// This plays the role of edwood's Elog (sam/elog.go), but enforces a
// stricter contract: any two Changes whose ranges overlap mark the file
// with ErrConflict and leave the text untouched, mirroring sam.c's
// change_new, which keeps a `latest` pointer into a range-sorted list
// and rejects any insertion that would overlap a neighbour. latest is
// retained here for the same reason: the common case is changes
// arriving in roughly ascending range order (handlers run in
// token/selection order), so checking against latest first avoids an
// O(n) scan on every enqueue.
type Transcript struct {
	head   *Change
	latest *Change
	n      int
	Err    error
}

// NewTranscript returns an empty Transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Reset clears all queued Changes and the error state, for reuse across
// top-level Exec calls on the same file.
func (t *Transcript) Reset() {
	t.head = nil
	t.latest = nil
	t.n = 0
	t.Err = nil
}

// Empty reports whether no Changes have been queued.
func (t *Transcript) Empty() bool { return t.n == 0 }

// Enqueue inserts c into the range-sorted list. If c's range overlaps an
// existing Change's range, the Transcript is marked with ErrConflict
// (once) and c is discarded — per §4.9/§8, the file is then skipped
// entirely by Apply.
func (t *Transcript) Enqueue(c *Change) {
	if t.Err != nil {
		return
	}
	nc := &Change{Kind: c.Kind, Win: c.Win, Sel: c.Sel, Range: c.Range, Data: c.Data, Count: c.Count}

	if t.latest != nil && nc.Range.Start >= t.latest.Range.End &&
		(t.latest.next == nil || nc.Range.End <= t.latest.next.Range.Start) {
		if overlaps(t.latest.Range, nc.Range) {
			t.conflict(nc.Range)
			return
		}
		if t.latest.next != nil && overlaps(t.latest.next.Range, nc.Range) {
			t.conflict(nc.Range)
			return
		}
		nc.next = t.latest.next
		t.latest.next = nc
		t.latest = nc
		t.n++
		return
	}

	// Fall back to a linear scan from the head; this only happens when a
	// Change arrives out of the common ascending order.
	var prev *Change
	cur := t.head
	for cur != nil && cur.Range.Start < nc.Range.Start {
		prev = cur
		cur = cur.next
	}
	if prev != nil && overlaps(prev.Range, nc.Range) {
		t.conflict(nc.Range)
		return
	}
	if cur != nil && overlaps(cur.Range, nc.Range) {
		t.conflict(nc.Range)
		return
	}
	nc.next = cur
	if prev == nil {
		t.head = nc
	} else {
		prev.next = nc
	}
	t.latest = nc
	t.n++
}

func (t *Transcript) conflict(r Range) {
	t.Err = newError(ErrConflict, r.Start, "overlapping changes in range [%d,%d)", r.Start, r.End)
}

func overlaps(a, b Range) bool {
	if a.Empty() && b.Empty() {
		return a.Start == b.Start
	}
	return a.Start < b.End && b.Start < a.End
}

// Changes returns the queued Changes in ascending range order.
func (t *Transcript) Changes() []*Change {
	out := make([]*Change, 0, t.n)
	for c := t.head; c != nil; c = c.next {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Range.Start < out[j].Range.Start })
	return out
}

// Apply plays the Transcript forward against text, maintaining a running
// delta so later Changes' ranges (expressed against the pre-apply text)
// land correctly as earlier Changes shift bytes around. It mirrors
// original_source/sam.c's sam_cmd apply loop: for each Change, the range
// is offset by delta; a delete removes range and decreases delta by its
// width; an insert writes Count copies of Data at the (possibly
// delete-adjusted) start and increases delta by their total width.
// Selections are re-anchored per §4.9.
func (t *Transcript) Apply(text Text) error {
	if t.Err != nil {
		return t.Err
	}
	delta := 0
	for _, c := range t.Changes() {
		r := Range{c.Range.Start + delta, c.Range.End + delta}
		switch {
		case c.Kind&ChangeDelete != 0 && c.Kind&ChangeInsert != 0:
			text.DeleteRange(r.Start, r.End)
			delta -= r.End - r.Start
			reanchorDelete(c, r.Start)
			for i := 0; i < max(c.Count, 1); i++ {
				text.Insert(r.Start, c.Data)
				delta += len(c.Data)
			}
			reanchorInsert(c, Range{r.Start, r.Start + len(c.Data)*max(c.Count, 1)})
		case c.Kind&ChangeDelete != 0:
			text.DeleteRange(r.Start, r.End)
			delta -= r.End - r.Start
			reanchorDelete(c, r.Start)
		case c.Kind&ChangeInsert != 0:
			start := r.Start
			for i := 0; i < max(c.Count, 1); i++ {
				text.Insert(start, c.Data)
				delta += len(c.Data)
			}
			reanchorInsert(c, Range{start, start + len(c.Data)*max(c.Count, 1)})
		}
	}
	return nil
}

func reanchorDelete(c *Change, pos int) {
	if c.Sel == nil {
		return
	}
	if c.Win != nil && c.Win.Visual() {
		c.Win.DisposeSelection(c.Sel)
		return
	}
	c.Sel.SetRange(Range{pos, pos})
}

func reanchorInsert(c *Change, inserted Range) {
	if c.Sel == nil {
		return
	}
	if c.Win != nil && c.Win.Visual() {
		c.Sel.SetRange(inserted)
		c.Sel.SetAnchored(true)
		return
	}
	if containsNewline(c.Data) {
		c.Sel.SetRange(Range{inserted.Start, inserted.Start})
	} else {
		c.Sel.SetRange(Range{inserted.End, inserted.End})
	}
}

func containsNewline(b []byte) bool {
	for _, c := range b {
		if c == '\n' {
			return true
		}
	}
	return false
}
