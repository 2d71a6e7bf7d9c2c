package sam

import (
	"github.com/sirupsen/logrus"
)

// Engine is the explicit context passed to every handler, replacing the
// ambient global `vis` state the original source carries (maps of
// commands/options/usercmds, active window, mode, shell string) — per
// §9's design note, handlers never reach into package-level mutable
// state.
type Engine struct {
	Registry *Registry
	Options  *OptionTable
	Registers Registers
	Process   Process
	UI        UI
	History   History
	KeyAliases KeyAliases

	// WindowSet, when set, lets X/Y and the split/new family iterate and
	// create windows; nil in engines that only ever operate on one buffer
	// (e.g. a scripted sam(1)-style filter).
	WindowSet WindowSet

	arena      *Arena
	scratch    *Arena
	parseState commandParseState
	shouldExit bool
	loopSeen   bool

	transcripts map[Window]*Transcript

	// ExitCode and Exited are set by the `q`/`qall` handlers.
	Exited   bool
	ExitCode int

	// Interrupt, when non-nil, is observed by pipe handlers after a
	// subprocess call returns; if closed, the change is abandoned (§5).
	Interrupt <-chan struct{}

	// lastMatch holds the most recent x/y/g/v submatch index pairs (as
	// returned by regexp.Regexp.FindSubmatchIndex, relative to the data
	// passed to it) so that a nested a/i/c's text can substitute '&' and
	// '\1'..'\9', per original_source/sam.c's text() helper.
	lastMatch   []int
	lastSubject []byte

	Log *logrus.Entry
}

// registersFromMatch stores $0..$9 for the match found in data at
// indices idx (as returned by FindSubmatchIndex) into e.Registers, if
// one is configured. Storage itself is a Non-goal; this only populates
// the collaborator interface.
func (e *Engine) registersFromMatch(data []byte, idx []int) {
	if e.Registers == nil || idx == nil {
		return
	}
	groups := make([]string, 0, len(idx)/2)
	for i := 0; i+1 < len(idx); i += 2 {
		if idx[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, string(data[idx[i]:idx[i+1]]))
	}
	e.Registers.PutRange("match", groups)
}

// NewEngine returns an Engine with the builtin registry, default option
// table, and a logger writing through logrus's standard logger.
// Collaborators default to nil and must be
// set by the host before handlers that need them run.
func NewEngine() *Engine {
	e := &Engine{
		Registry:    NewRegistry(),
		arena:       NewArena(1024),
		scratch:     NewArena(1024),
		transcripts: make(map[Window]*Transcript),
		Log:         logrus.NewEntry(logrus.StandardLogger()),
	}
	e.Options = NewOptionTable(e)
	return e
}

func (e *Engine) transcriptFor(win Window) *Transcript {
	t, ok := e.transcripts[win]
	if !ok {
		t = NewTranscript()
		e.transcripts[win] = t
	}
	return t
}

// interrupted reports whether the caller-supplied Interrupt channel has
// fired, for pipe handlers to observe after blocking on a subprocess.
func (e *Engine) interrupted() bool {
	if e.Interrupt == nil {
		return false
	}
	select {
	case <-e.Interrupt:
		return true
	default:
		return false
	}
}
