// Package runtime provides minimal, in-process implementations of the
// sam package's host collaborator interfaces (Window, Selection,
// WindowSet, Registers, Process), enough to drive the engine from a
// script or a REPL without acme/edwood's display machinery.
package runtime

import (
	"bytes"
	"os"
	"os/exec"
	"sync"

	"github.com/rjkroege/samengine/sam"
	"github.com/rjkroege/samengine/undo"
)

// Selection is runtime's sam.Selection.
type Selection struct {
	rng      sam.Range
	anchored bool
	ordinal  int
}

func (s *Selection) Range() sam.Range   { return s.rng }
func (s *Selection) SetRange(r sam.Range) { s.rng = r }
func (s *Selection) Anchored() bool     { return s.anchored }
func (s *Selection) SetAnchored(a bool) { s.anchored = a }
func (s *Selection) Ordinal() int       { return s.ordinal }

// Window is runtime's sam.Window: one undo.Text plus a selection list.
type Window struct {
	text *undo.Text
	name string

	mu      sync.Mutex
	sels    []sam.Selection
	primary sam.Selection

	options uint32
	visual  bool
}

// NewWindow wraps content under name with a single zero-width selection.
func NewWindow(name string, content []byte) *Window {
	w := &Window{text: undo.NewText(content), name: name}
	w.primary = w.NewSelection(sam.Range{})
	return w
}

// OpenWindow loads name from disk.
func OpenWindow(name string) (*Window, error) {
	t, err := undo.NewTextFromFile(name)
	if err != nil {
		return nil, err
	}
	w := &Window{text: t, name: name}
	w.primary = w.NewSelection(sam.Range{})
	return w, nil
}

func (w *Window) Text() sam.Text       { return w.text }
func (w *Window) FileName() string     { return w.name }
func (w *Window) Options() uint32      { return w.options }
func (w *Window) SetOptions(o uint32)  { w.options = o }
func (w *Window) Visual() bool         { return w.visual }
func (w *Window) SetMode(visual bool)  { w.visual = visual }
func (w *Window) Close(force bool) error {
	if !force && w.text.Modified() {
		return &sam.Error{Kind: sam.ErrWriteConflict, Msg: "buffer modified"}
	}
	return nil
}

func (w *Window) Selections() []sam.Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]sam.Selection, len(w.sels))
	copy(out, w.sels)
	return out
}

func (w *Window) PrimarySelection() sam.Selection { return w.primary }

func (w *Window) SetPrimarySelection(s sam.Selection) { w.primary = s }

func (w *Window) NewSelection(r sam.Range) sam.Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := &Selection{rng: r, ordinal: len(w.sels)}
	w.sels = append(w.sels, s)
	return s
}

func (w *Window) DisposeSelection(target sam.Selection) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, s := range w.sels {
		if s == target {
			w.sels = append(w.sels[:i], w.sels[i+1:]...)
			return
		}
	}
}

// WindowSet is runtime's sam.WindowSet: a flat, mutex-guarded slice.
type WindowSet struct {
	mu      sync.Mutex
	windows []*Window
	layout  string
}

// NewWindowSet returns an empty WindowSet.
func NewWindowSet() *WindowSet {
	return &WindowSet{}
}

func (ws *WindowSet) Windows() []sam.Window {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := make([]sam.Window, len(ws.windows))
	for i, w := range ws.windows {
		out[i] = w
	}
	return out
}

func (ws *WindowSet) Open(name string) (sam.Window, error) {
	w, err := OpenWindow(name)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	ws.windows = append(ws.windows, w)
	ws.mu.Unlock()
	return w, nil
}

func (ws *WindowSet) New(name string) (sam.Window, error) {
	w := NewWindow(name, nil)
	ws.mu.Lock()
	ws.windows = append(ws.windows, w)
	ws.mu.Unlock()
	return w, nil
}

func (ws *WindowSet) Close(target sam.Window, force bool) error {
	w, ok := target.(*Window)
	if !ok {
		return nil
	}
	if err := w.Close(force); err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for i, existing := range ws.windows {
		if existing == w {
			ws.windows = append(ws.windows[:i], ws.windows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (ws *WindowSet) Arrange(layout string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.layout = layout
}

// Registers is runtime's sam.Registers: a plain map. PutRange stores one
// entry per group under the keys "<name>.0", "<name>.1", ..., next to any
// named register.
type Registers struct {
	mu    sync.Mutex
	named map[string]string
}

// NewRegisters returns an empty Registers.
func NewRegisters() *Registers {
	return &Registers{named: make(map[string]string)}
}

func (r *Registers) Get(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.named[name]
}

func (r *Registers) Put(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named[name] = value
}

func (r *Registers) PutRange(name string, match []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, v := range match {
		r.named[name+"."+itoa(i)] = v
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// KeyAliases is runtime's sam.KeyAliases: a flat mode/lhs -> rhs table.
type KeyAliases struct {
	mu    sync.Mutex
	binds map[string]string
}

// NewKeyAliases returns an empty KeyAliases table.
func NewKeyAliases() *KeyAliases {
	return &KeyAliases{binds: make(map[string]string)}
}

func (k *KeyAliases) Bind(mode, lhs, rhs string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.binds[mode+"\x00"+lhs] = rhs
	return nil
}

func (k *KeyAliases) Unbind(mode, lhs string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.binds, mode+"\x00"+lhs)
	return nil
}

// Resolve returns the alias bound to lhs in mode, if any.
func (k *KeyAliases) Resolve(mode, lhs string) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	rhs, ok := k.binds[mode+"\x00"+lhs]
	return rhs, ok
}

// History is runtime's sam.History: a thin fan-out to every open
// window's own undo.Text, since the engine's History collaborator is
// not itself window-scoped.
type History struct {
	ws *WindowSet
}

// NewHistory returns a History driving every window in ws.
func NewHistory(ws *WindowSet) *History {
	return &History{ws: ws}
}

func (h *History) Earlier(n int) error {
	for _, w := range h.ws.windows {
		if err := w.text.Earlier(n); err != nil {
			return err
		}
	}
	return nil
}

func (h *History) Later(n int) error {
	for _, w := range h.ws.windows {
		if err := w.text.Later(n); err != nil {
			return err
		}
	}
	return nil
}

// Process is runtime's sam.Process, shelling out via os/exec.
type Process struct{}

func (Process) Pipe(argv []string, input []byte, interrupt <-chan struct{}) ([]byte, []byte, error) {
	if len(argv) == 0 {
		return nil, nil, os.ErrInvalid
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return stdout.Bytes(), stderr.Bytes(), err
	case <-interrupt:
		_ = cmd.Process.Kill()
		<-done
		return stdout.Bytes(), stderr.Bytes(), os.ErrClosed
	}
}
