package sam

// parseOneCommand parses either a '{' group or a single named command.
func parseOneCommand(e *Engine, ts *TokenStream) (*Command, error) {
	t := ts.Peek()
	switch t.Kind {
	case GroupStart:
		return parseGroup(e, ts)
	case String:
		return parseNamedCommand(e, ts)
	case Invalid:
		return nil, newError(ErrCommand, t.Start, "expected command")
	default:
		return nil, newError(ErrCommand, t.Start, "unexpected token")
	}
}

func parseGroup(e *Engine, ts *TokenStream) (*Command, error) {
	start := ts.Pop() // consume '{'
	var first, last *Command
	for {
		t := ts.Peek()
		if t.Kind == GroupEnd {
			ts.Pop()
			break
		}
		if t.Kind == Invalid {
			return nil, newError(ErrUnmatchedBrace, start.Start, "unmatched '{'")
		}
		c, err := parseOneCommand(e, ts)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		if first == nil {
			first = c
		} else {
			last.Next = c
		}
		last = c
	}
	return &Command{Def: groupCommandDef, Cmd: first}, nil
}

var groupCommandDef = &CommandDef{
	Name:           "{group}",
	Flags:          FlagAddressNone,
	AddressDefault: FlagAddressPos,
}

func init() {
	groupCommandDef.Fn = func(e *Engine, win Window, c *Command, sel Selection, rng Range) error {
		return runNested(e, win, c.Cmd, sel, rng)
	}
}

func parseNamedCommand(e *Engine, ts *TokenStream) (*Command, error) {
	nameTok := ts.JoinCommandName()
	name := ts.Text(nameTok)
	def := e.Registry.Lookup(name)
	if def == nil {
		return nil, newError(ErrCommand, nameTok.Start, "unknown command %q", name)
	}
	return ParseCommand(e, ts, def)
}

// Exec lexes and executes one sam command line against win, writing
// enqueued Changes into win's Transcript, then applying the Transcript
// to win's Text and re-anchoring selections. It corresponds to
// original_source/sam.c's sam_cmd: reset scratch state, lex, validate,
// execute_token_stream, then apply.
func (e *Engine) Exec(line []byte, win Window) error {
	e.arena.Reset()
	e.scratch.Reset()
	e.parseState = commandParseState{}
	e.shouldExit = false
	e.loopSeen = false

	// Token memory for this call lives in e.arena: the line is copied in
	// once so every Token's Start/Length indexes arena-owned storage
	// rather than a buffer the caller is free to reuse or mutate once
	// Exec returns.
	raw := e.arena.Alloc(len(line))
	copy(raw, line)

	ts := Lex(raw)
	if err := ts.Validate(); err != nil {
		return err
	}

	addr, err := ParseAddress(ts)
	if err != nil {
		return err
	}

	var topCmds []*Command
	for !ts.AtEnd() {
		c, err := parseOneCommand(e, ts)
		if err != nil {
			return err
		}
		if c == nil {
			break
		}
		c.HasAddr = addr.HasLeft || addr.Right.Type != ATInvalid
		c.Addr = addr
		topCmds = append(topCmds, c)
		addr = Address{} // only the first command gets the top-level address
	}

	transcript := e.transcriptFor(win)
	for _, c := range topCmds {
		if err := e.dispatch(win, c); err != nil {
			e.shouldExit = true
			transcript.Reset()
			return err
		}
		if e.shouldExit {
			break
		}
	}

	if err := transcript.Err; err != nil {
		transcript.Reset()
		return err
	}
	if err := transcript.Apply(win.Text()); err != nil {
		return err
	}
	transcript.Reset()
	return nil
}

// dispatch expands c across win's selections (or runs it once, for
// editor/ONCE commands), honouring the loop/destructive rule and the
// address-default flags, per §4.6.
func (e *Engine) dispatch(win Window, c *Command) error {
	if c.Def == groupCommandDef {
		for child := c.Cmd; child != nil; child = child.Next {
			if err := e.dispatch(win, child); err != nil {
				return err
			}
		}
		return nil
	}

	if c.Def.Flags&FlagDestructive != 0 && e.loopSeen {
		return newError(ErrLoopInvalidCmd, 0, "destructive command in looping construct")
	}
	if c.Def.Flags&FlagLoop != 0 {
		e.loopSeen = true
	}

	if win == nil || c.Def.Flags&FlagWin == 0 {
		return c.Def.Fn(e, win, c, nil, Range{})
	}

	sels := win.Selections()
	if len(sels) == 0 {
		sels = []Selection{win.NewSelection(Range{0, 0})}
	}

	if c.Def.Flags&FlagOnce != 0 {
		rng, err := e.resolveRange(win, c, sels[0])
		if err != nil {
			return err
		}
		return c.Def.Fn(e, win, c, sels[0], rng)
	}

	for _, sel := range sels {
		rng, err := e.resolveRange(win, c, sel)
		if err != nil {
			return err
		}
		if err := c.Def.Fn(e, win, c, sel, rng); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) resolveRange(win Window, c *Command, sel Selection) (Range, error) {
	cur := sel.Range()
	if !c.Addr.IsEmpty() {
		return EvaluateAddress(c.Addr, win.Text(), cur, sel.Ordinal())
	}
	switch {
	case c.Def.AddressDefault&FlagAddressAll != 0:
		return Range{0, win.Text().Size()}, nil
	case c.Def.AddressDefault&FlagAddressAll1Cursor != 0:
		if len(win.Selections()) == 1 {
			return Range{0, win.Text().Size()}, nil
		}
		return cur, nil
	case c.Def.AddressDefault&FlagAddressLine != 0:
		line := win.Text().LineNumber(cur.Start)
		return Range{win.Text().LinePos(line), win.Text().LinePos(line + 1)}, nil
	case c.Def.AddressDefault&FlagAddressAfter != 0:
		line := win.Text().LineNumber(cur.End)
		pos := win.Text().LinePos(line + 1)
		return Range{pos, pos}, nil
	case c.Def.AddressDefault&FlagAddressPos != 0:
		return Range{cur.Start, cur.Start}, nil
	default:
		end := cur.Start + 1
		if end > win.Text().Size() {
			end = win.Text().Size()
		}
		return Range{cur.Start, end}, nil
	}
}

// runNested executes a nested Command (the CMD argument of x/y/g/v/X/Y
// or a group's children) against a single resolved range/selection,
// recursing through dispatch so that a nested group still fans out over
// its own siblings under the enclosing selection.
func runNested(e *Engine, win Window, c *Command, sel Selection, rng Range) error {
	for cmd := c; cmd != nil; cmd = cmd.Next {
		if cmd.Def == groupCommandDef {
			if err := runNested(e, win, cmd.Cmd, sel, rng); err != nil {
				return err
			}
			continue
		}
		useRng := rng
		if !cmd.Addr.IsEmpty() {
			r, err := EvaluateAddress(cmd.Addr, win.Text(), rng, sel.Ordinal())
			if err != nil {
				return err
			}
			useRng = r
		}
		if err := cmd.Def.Fn(e, win, cmd, sel, useRng); err != nil {
			return err
		}
	}
	return nil
}
