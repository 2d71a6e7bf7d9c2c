package sam

import (
	"os"

	"golang.org/x/sys/unix"
)

// cmdWrite implements `w`, grounded on original_source/vis-cmds.c's
// command_write: SaveBegin/WriteRange/Commit against the range's bytes
// (all of it by default, per FlagAddressAll), refusing to clobber a file
// that changed on disk since it was loaded unless Force is set.
func cmdWrite(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	name := win.FileName()
	if len(cmd.Argv) > 0 {
		name = cmd.Argv[0]
	}
	if name == "" {
		return newError(ErrWriteConflict, 0, "no file name")
	}

	if !cmd.Force {
		if diskStat, err := os.Stat(name); err == nil {
			if bufStat, err := win.Text().Stat(); err == nil {
				if diskStat.ModTime().After(bufStat.ModTime()) {
					return newError(ErrWriteConflict, 0, "%s modified on disk since load", name)
				}
			}
		}
	}

	h, err := win.Text().SaveBegin(name)
	if err != nil {
		return wrapError(ErrIO, 0, err, "w")
	}
	if err := h.WriteRange(rng, readRange(win.Text(), rng)); err != nil {
		_ = h.Cancel()
		return wrapError(ErrIO, 0, err, "w")
	}
	if err := h.Commit(); err != nil {
		return wrapError(ErrIO, 0, err, "w")
	}
	return syncPath(name)
}

// syncPath fsyncs the written file's directory entry, grounded on the
// atomic-rename savemethod original_source's writer uses: the rename
// itself is durable only once the containing directory is synced too.
func syncPath(name string) error {
	dir, err := os.Open(dirOf(name))
	if err != nil {
		return nil // best-effort; not every filesystem needs this
	}
	defer dir.Close()
	return unix.Fsync(int(dir.Fd()))
}

func dirOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[:i]
		}
	}
	return "."
}

// cmdRead implements `r`, inserting a file's (or a shell pipeline's,
// when Argv[0] starts with '!') output after rng, per §4.7.
func cmdRead(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	if len(cmd.Argv) == 0 {
		return newError(ErrCommand, 0, "usage: r filename")
	}
	arg := cmd.Argv[0]
	var data []byte
	if len(arg) > 0 && arg[0] == '!' {
		if e.Process == nil {
			return newError(ErrShell, 0, "no process collaborator configured")
		}
		stdout, _, err := e.Process.Pipe(shellArgv(arg[1:]), nil, e.Interrupt)
		if err != nil {
			return wrapError(ErrShell, 0, err, "r")
		}
		data = stdout
	} else {
		b, err := os.ReadFile(arg)
		if err != nil {
			return wrapError(ErrIO, 0, err, "r")
		}
		data = b
	}
	e.transcriptFor(win).Enqueue(&Change{Kind: ChangeInsert, Win: win, Sel: sel, Range: Range{rng.End, rng.End}, Data: data})
	return nil
}

// cmdEdit implements `e`: replaces the buffer's contents with a fresh
// read of name (or the current file name when Argv is empty), refusing
// to discard unsaved changes unless Force is set.
func cmdEdit(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	if !cmd.Force && win.Text().Modified() {
		return newError(ErrWriteConflict, 0, "buffer modified, use e! to discard")
	}
	name := win.FileName()
	if len(cmd.Argv) > 0 {
		name = cmd.Argv[0]
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return wrapError(ErrIO, 0, err, "e")
	}
	full := Range{0, win.Text().Size()}
	e.transcriptFor(win).Enqueue(&Change{Kind: ChangeBoth, Win: win, Sel: sel, Range: full, Data: data})
	return nil
}

// cmdQuit implements `q`, refusing to exit while the window is modified
// unless Force is set, per original_source/vis-cmds.c's command_quit.
func cmdQuit(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	if !cmd.Force && win != nil && win.Text().Modified() {
		return newError(ErrWriteConflict, 0, "buffer modified, use q! to discard")
	}
	e.shouldExit = true
	e.Exited = true
	if cmd.HasCount {
		e.ExitCode = cmd.Count.Start
	}
	return nil
}

// cmdCd implements `cd`, changing the process working directory the
// shell/pipe commands and relative filenames are resolved against. With
// no argument it defaults to $HOME, per original_source/vis-cmds.c's
// command_cd.
func cmdCd(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	dir := ""
	if len(cmd.Argv) > 0 {
		dir = cmd.Argv[0]
	} else if home := os.Getenv("HOME"); home != "" {
		dir = home
	} else {
		return newError(ErrCommand, 0, "cd: $HOME is not set")
	}
	if err := unix.Chdir(dir); err != nil {
		return wrapError(ErrIO, 0, err, "cd")
	}
	return nil
}
