package sam

import "github.com/rjkroege/samengine/internal/lookup"

// namedWindow adapts a Window to lookup.Named so the generic name/
// pattern matching in internal/lookup can operate on it without that
// package importing sam (which would cycle back through Window's own
// use of Range/Selection).
type namedWindow struct{ Window }

func (w namedWindow) Name() string { return w.Window.FileName() }

// cmdFiles returns the X/Y handler: iterate the windows whose name
// matches (X) or does not match (Y) cmd.Regex, running cmd.Cmd against
// each with its default selection reset to the whole buffer. Grounded
// on original_source/vis-cmds.c's command_filelist plus the vis-cmds.c
// files() helper it shares between X and Y.
func cmdFiles(complement bool) HandlerFunc {
	return func(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
		if e.WindowSet == nil {
			return newError(ErrCommand, 0, "no window set configured")
		}
		all := make([]namedWindow, 0)
		for _, w := range e.WindowSet.Windows() {
			all = append(all, namedWindow{w})
		}

		var targets []namedWindow
		if cmd.Regex != nil {
			matched := lookup.FindByPattern(all, cmd.Regex)
			if complement {
				targets = lookup.Complement(all, matched)
			} else {
				targets = matched
			}
		} else if complement {
			targets = nil
		} else {
			targets = all
		}

		for _, nw := range targets {
			w := nw.Window
			full := Range{0, w.Text().Size()}
			s := w.NewSelection(full)
			if cmd.Cmd != nil {
				if err := runNested(e, w, cmd.Cmd, s, full); err != nil {
					return err
				}
			}
			w.DisposeSelection(s)
			if t := e.transcriptFor(w); !t.Empty() {
				if err := t.Apply(w.Text()); err != nil {
					return err
				}
				t.Reset()
			}
		}
		return nil
	}
}
