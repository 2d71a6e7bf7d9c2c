package undo

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rjkroege/samengine/sam"
)

// Text wraps a piece-table Buffer to implement sam.Text and sam.History,
// serving as the engine's reference in-memory backend: a byte-addressed
// buffer with real undo/redo, grounded directly on Buffer's own
// Insert/Delete/Undo/Redo rather than reimplementing edit history.
type Text struct {
	buf  *Buffer
	name string

	marks map[markKey]int

	modTime    time.Time
	loadedStat os.FileInfo
}

type markKey struct {
	name    rune
	ordinal int
}

// NewText returns a Text over content, with an empty mark table.
func NewText(content []byte) *Text {
	return &Text{buf: NewBuffer(content), marks: make(map[markKey]int), modTime: clockNow()}
}

// NewTextFromFile reads name and records its stat info, so a later `w`
// can detect an out-of-band modification before overwriting it.
func NewTextFromFile(name string) (*Text, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	t := NewText(data)
	t.name = name
	t.loadedStat = st
	return t, nil
}

var clockNow = time.Now

func (t *Text) Size() int {
	return int(t.buf.Size())
}

func (t *Text) ByteAt(pos int) byte {
	var b [1]byte
	n, _ := t.buf.ReadAt(b[:], int64(pos))
	if n == 0 {
		return 0
	}
	return b[0]
}

func (t *Text) snapshot() []byte {
	out := make([]byte, t.buf.Size())
	t.buf.ReadAt(out, 0)
	return out
}

// Snapshot returns the buffer's full contents.
func (t *Text) Snapshot() []byte {
	return t.snapshot()
}

// LinePos returns the byte offset where line n (1-based) begins.
func (t *Text) LinePos(line int) int {
	if line <= 1 {
		return 0
	}
	data := t.snapshot()
	seen := 1
	for i, c := range data {
		if c == '\n' {
			seen++
			if seen == line {
				return i + 1
			}
		}
	}
	return len(data)
}

// LineNumber returns the 1-based line containing pos.
func (t *Text) LineNumber(pos int) int {
	data := t.snapshot()
	if pos > len(data) {
		pos = len(data)
	}
	return 1 + bytes.Count(data[:pos], []byte{'\n'})
}

func (t *Text) SearchForward(re *regexp.Regexp, from int) []int {
	data := t.snapshot()
	if from > len(data) {
		from = len(data)
	}
	loc := re.FindIndex(data[from:])
	if loc == nil {
		return nil
	}
	return []int{loc[0] + from, loc[1] + from}
}

func (t *Text) SearchBackward(re *regexp.Regexp, before int) []int {
	data := t.snapshot()
	if before > len(data) {
		before = len(data)
	}
	var best []int
	for _, loc := range re.FindAllIndex(data[:before], -1) {
		best = loc
	}
	return best
}

func (t *Text) Insert(pos int, data []byte) {
	t.buf.Insert(int64(pos), data)
	t.buf.Commit()
	t.modTime = clockNow()
}

func (t *Text) DeleteRange(start, end int) {
	t.buf.Delete(int64(start), int64(end-start))
	t.buf.Commit()
	t.modTime = clockNow()
}

func (t *Text) Mark(name rune, ordinal int) (int, bool) {
	pos, ok := t.marks[markKey{name, ordinal}]
	return pos, ok
}

func (t *Text) SetMark(name rune, ordinal int, pos int) {
	t.marks[markKey{name, ordinal}] = pos
}

// Modified reports whether the buffer has uncommitted changes relative
// to the last Clean call (see SaveHandle.Commit).
func (t *Text) Modified() bool {
	return t.buf.Dirty()
}

// Stat returns the file info recorded when the text was loaded or last
// saved, not a live re-stat, so callers can compare it against the
// file's current on-disk state to detect out-of-band changes.
func (t *Text) Stat() (os.FileInfo, error) {
	if t.loadedStat == nil {
		return nil, fmt.Errorf("text: no backing file")
	}
	return t.loadedStat, nil
}

// SaveBegin returns a SaveHandle that stages writes into an in-memory
// buffer and, on Commit, replaces the file at name and marks the text
// clean. It never partially writes name: Cancel simply drops the
// staged bytes.
func (t *Text) SaveBegin(name string) (sam.SaveHandle, error) {
	return &saveHandle{text: t, name: name}, nil
}

// History implements sam.History by walking Buffer's own undo/redo
// action stack.
func (t *Text) Earlier(n int) error {
	for i := 0; i < n; i++ {
		t.buf.Undo()
	}
	return nil
}

func (t *Text) Later(n int) error {
	for i := 0; i < n; i++ {
		t.buf.Redo()
	}
	return nil
}

// saveHandle is sam.SaveHandle's default implementation, staging a
// single write to the backing file.
type saveHandle struct {
	text    *Text
	name    string
	pending []byte
	wrote   bool
}

func (h *saveHandle) WriteRange(rng sam.Range, data []byte) error {
	h.pending = append(h.pending, data...)
	h.wrote = true
	return nil
}

func (h *saveHandle) Commit() error {
	if err := os.WriteFile(h.name, h.pending, 0644); err != nil {
		return err
	}
	h.text.name = h.name
	h.text.buf.Clean()
	h.text.modTime = clockNow()
	if st, err := os.Stat(h.name); err == nil {
		h.text.loadedStat = st
	}
	return nil
}

func (h *saveHandle) Cancel() error {
	h.pending = nil
	return nil
}
