package sam

import "strings"

// editorCommands holds the commands that act on the window set or the
// engine's ambient tables rather than on one buffer's text, grounded on
// original_source/vis-cmds.c's non-address command_* family.
var editorCommands = []CommandDef{
	{Name: "set", Flags: FlagArgv, AddressDefault: FlagAddressNone, Fn: cmdSet},
	{Name: "open", Flags: FlagArgv | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdOpen},
	{Name: "new", Flags: FlagArgv | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdNewSplit("horizontal")},
	{Name: "vnew", Flags: FlagArgv | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdNewSplit("vertical")},
	{Name: "split", Flags: FlagArgv | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdSplit("horizontal")},
	{Name: "vsplit", Flags: FlagArgv | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdSplit("vertical")},
	{Name: "wq", Flags: FlagWin | FlagForce | FlagArgv | FlagOnce, AddressDefault: FlagAddressAll, Fn: cmdWriteQuit},
	{Name: "qall", Flags: FlagForce | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdQuitAll},
	{Name: "earlier", Flags: FlagCount | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdEarlierLater(true)},
	{Name: "later", Flags: FlagCount | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdEarlierLater(false)},
	{Name: "map", Flags: FlagArgv | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdMap("normal")},
	{Name: "map-window", Flags: FlagArgv | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdMap("visual")},
	{Name: "unmap", Flags: FlagArgv | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdUnmap},
	{Name: "langmap", Flags: FlagArgv | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdMap("langmap")},
	{Name: "help", Flags: FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdHelp},
}

// cmdOpen implements `open`, grounded on original_source/vis-cmds.c's
// command_open: creates a window from name via the WindowSet and makes
// it the primary target of subsequent commands is left to the host (the
// engine itself is stateless across Exec calls, per §9).
func cmdOpen(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	if e.WindowSet == nil {
		return newError(ErrCommand, 0, "no window set configured")
	}
	if len(cmd.Argv) == 0 {
		return newError(ErrCommand, 0, "usage: open filename")
	}
	_, err := e.WindowSet.Open(cmd.Argv[0])
	if err != nil {
		return wrapError(ErrIO, 0, err, "open")
	}
	return nil
}

// cmdNewSplit returns the new/vnew handler: an unnamed scratch window,
// arranged per layout.
func cmdNewSplit(layout string) HandlerFunc {
	return func(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
		if e.WindowSet == nil {
			return newError(ErrCommand, 0, "no window set configured")
		}
		name := ""
		if len(cmd.Argv) > 0 {
			name = cmd.Argv[0]
		}
		if _, err := e.WindowSet.New(name); err != nil {
			return wrapError(ErrIO, 0, err, "new")
		}
		e.WindowSet.Arrange(layout)
		return nil
	}
}

// cmdSplit returns the split/vsplit handler: like open, but arranges
// the window set afterward per layout.
func cmdSplit(layout string) HandlerFunc {
	return func(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
		if err := cmdOpen(e, win, cmd, sel, rng); err != nil {
			return err
		}
		e.WindowSet.Arrange(layout)
		return nil
	}
}

func cmdWriteQuit(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	if err := cmdWrite(e, win, cmd, sel, rng); err != nil {
		return err
	}
	return cmdQuit(e, win, cmd, sel, rng)
}

// cmdQuitAll implements `qall`, refusing to exit while any window is
// modified unless Force is set.
func cmdQuitAll(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	if e.WindowSet != nil && !cmd.Force {
		for _, w := range e.WindowSet.Windows() {
			if w.Text().Modified() {
				return newError(ErrWriteConflict, 0, "%s modified, use qall! to discard", w.FileName())
			}
		}
	}
	e.shouldExit = true
	e.Exited = true
	return nil
}

// cmdEarlierLater returns the earlier/later handler: a thin call into
// the History collaborator, per §6.
func cmdEarlierLater(earlier bool) HandlerFunc {
	return func(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
		if e.History == nil {
			return newError(ErrCommand, 0, "no history collaborator configured")
		}
		n := 1
		if cmd.HasCount {
			n = cmd.Count.Start
		}
		if earlier {
			return e.History.Earlier(n)
		}
		return e.History.Later(n)
	}
}

// cmdMap returns the map/map-window/langmap handler: LHS is the first
// argv token and RHS is the remaining tokens joined by single spaces,
// per original_source/vis-cmds.c's
// command_map/command_langmap (a key-alias table, never itself
// interpreting keys — input dispatch is a Non-goal).
func cmdMap(mode string) HandlerFunc {
	return func(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
		if e.KeyAliases == nil {
			return newError(ErrCommand, 0, "no key alias table configured")
		}
		if len(cmd.Argv) < 2 {
			return newError(ErrCommand, 0, "usage: map lhs rhs")
		}
		return e.KeyAliases.Bind(mode, cmd.Argv[0], strings.Join(cmd.Argv[1:], " "))
	}
}

func cmdUnmap(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	if e.KeyAliases == nil {
		return newError(ErrCommand, 0, "no key alias table configured")
	}
	if len(cmd.Argv) < 1 {
		return newError(ErrCommand, 0, "usage: unmap lhs")
	}
	return e.KeyAliases.Unbind("normal", cmd.Argv[0])
}

// cmdHelp implements `help`, printing one usage line per visible
// command through UI.InfoShow, grounded on original_source/vis-cmds.c's
// command_help.
func cmdHelp(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	if e.UI == nil {
		return nil
	}
	for _, def := range e.Registry.All() {
		help := def.Help
		if help == "" {
			help = def.Name
		}
		e.UI.InfoShow("%s", help)
	}
	return nil
}
