package sam

import "regexp"

// builtinCommands is the static command table, grounded on
// original_source/sam.c's command_definition_table: one entry per
// handler with the flag combination that drives argument parsing
// (command.go) and execution (exec.go).
var builtinCommands = []CommandDef{
	{Name: "a", Flags: FlagWin | FlagText, AddressDefault: FlagAddressAfter, Fn: cmdInsertAppendChange},
	{Name: "i", Flags: FlagWin | FlagText, AddressDefault: FlagAddressPos, Fn: cmdInsertAppendChange},
	{Name: "c", Flags: FlagWin | FlagText, AddressDefault: FlagAddressPos, Fn: cmdInsertAppendChange},
	{Name: "d", Flags: FlagWin | FlagDestructive, AddressDefault: FlagAddressPos, Fn: cmdDelete},
	{Name: "p", Flags: FlagWin, AddressDefault: FlagAddressPos, Fn: cmdPrint},
	{Name: "g", Flags: FlagWin | FlagRegex | FlagRegexDefault | FlagCMD | FlagLoop, AddressDefault: FlagAddressLine, Fn: cmdGuard(false)},
	{Name: "v", Flags: FlagWin | FlagRegex | FlagRegexDefault | FlagCMD | FlagLoop, AddressDefault: FlagAddressLine, Fn: cmdGuard(true)},
	{Name: "x", Flags: FlagWin | FlagRegex | FlagRegexDefault | FlagCMD | FlagLoop, AddressDefault: FlagAddressAll, Fn: cmdExtract(false)},
	{Name: "y", Flags: FlagWin | FlagRegex | FlagRegexDefault | FlagCMD | FlagLoop, AddressDefault: FlagAddressAll, Fn: cmdExtract(true)},
	{Name: "X", Flags: FlagRegex | FlagCMD | FlagLoop | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdFiles(false)},
	{Name: "Y", Flags: FlagRegex | FlagCMD | FlagLoop | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdFiles(true)},
	{Name: ">", Flags: FlagWin | FlagShell, AddressDefault: FlagAddressLine, Fn: cmdPipe(pipeWriteOnly)},
	{Name: "<", Flags: FlagWin | FlagShell | FlagDestructive, AddressDefault: FlagAddressPos, Fn: cmdPipe(pipeReadInto)},
	{Name: "|", Flags: FlagWin | FlagShell | FlagDestructive, AddressDefault: FlagAddressLine, Fn: cmdPipe(pipeFilter)},
	{Name: "!", Flags: FlagWin | FlagShell | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdPipe(pipeLaunch)},
	{Name: "w", Flags: FlagWin | FlagForce | FlagArgv, AddressDefault: FlagAddressAll, Fn: cmdWrite},
	{Name: "r", Flags: FlagWin | FlagArgv, AddressDefault: FlagAddressAfter, Fn: cmdRead},
	{Name: "e", Flags: FlagWin | FlagForce | FlagArgv, AddressDefault: FlagAddressNone, Fn: cmdEdit},
	{Name: "q", Flags: FlagForce | FlagCount | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdQuit},
	{Name: "cd", Flags: FlagArgv | FlagOnce, AddressDefault: FlagAddressNone, Fn: cmdCd},
}

func cmdInsertAppendChange(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	text := substituteBackrefs(cmd.Text, e.lastSubject, e.lastMatch)
	var kind ChangeKind
	var target Range
	switch cmd.Def.Name {
	case "a":
		kind, target = ChangeInsert, Range{rng.End, rng.End}
	case "i":
		kind, target = ChangeInsert, Range{rng.Start, rng.Start}
	default: // "c"
		kind, target = ChangeBoth, rng
	}
	count := 1
	if cmd.HasCount {
		count = cmd.Count.Start
	}
	e.transcriptFor(win).Enqueue(&Change{Kind: kind, Win: win, Sel: sel, Range: target, Data: text, Count: count})
	return nil
}

func cmdDelete(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	e.transcriptFor(win).Enqueue(&Change{Kind: ChangeDelete, Win: win, Sel: sel, Range: rng})
	return nil
}

func cmdPrint(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	if sel == nil {
		sel = win.NewSelection(rng)
	} else {
		sel.SetRange(rng)
	}
	sel.SetAnchored(!rng.Empty())
	return nil
}

// cmdGuard returns the g/v handler: inverse selects 'v' semantics.
func cmdGuard(inverse bool) HandlerFunc {
	return func(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
		cmd.Iteration++
		if cmd.HasCount && !cmd.Count.Matches(cmd.Iteration) {
			win.DisposeSelection(sel)
			return nil
		}
		text := readRange(win.Text(), rng)
		matched := cmd.Regex != nil && cmd.Regex.Match(text)
		if matched == inverse {
			win.DisposeSelection(sel)
			return nil
		}
		if cmd.Cmd == nil {
			return cmdPrint(e, win, cmd, sel, rng)
		}
		e.lastMatch = cmd.Regex.FindSubmatchIndex(text)
		e.lastSubject = text
		return runNested(e, win, cmd.Cmd, sel, rng)
	}
}

// cmdExtract returns the x/y handler. x recurses on each forward,
// non-overlapping match; y recurses on the gaps between matches (the
// complement). Without a pattern, iteration is per line. Per §4.7, empty
// matches are advanced by one byte, and an empty match immediately at
// EOF after a newline is suppressed so `x/$/ ...` doesn't spuriously
// fire twice at the very end of a trailing-newline file.
func cmdExtract(complement bool) HandlerFunc {
	return func(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
		text := win.Text()
		matches := matchRanges(cmd.Regex, text, rng)

		var targets []Range
		if !complement {
			targets = matches
		} else {
			targets = complementRanges(matches, rng)
		}

		count := Count{Start: 0, End: maxInt}
		if cmd.HasCount {
			count = cmd.Count.resolveNegative(len(targets))
		}

		for i, r := range targets {
			iter := i + 1
			if !count.Matches(iter) {
				continue
			}
			sub := win.NewSelection(r)
			if !complement && cmd.Regex != nil {
				data := readRange(text, r)
				e.lastMatch = cmd.Regex.FindSubmatchIndex(data)
				e.lastSubject = data
				e.registersFromMatch(data, e.lastMatch)
			}
			if cmd.Cmd != nil {
				if err := runNested(e, win, cmd.Cmd, sub, r); err != nil {
					return err
				}
			} else {
				if err := cmdPrint(e, win, cmd, sub, r); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

// matchRanges finds forward, non-overlapping matches of re inside rng.
// When re is nil, it splits rng into line ranges instead (the "without a
// pattern the iteration is per-line" rule).
func matchRanges(re *regexp.Regexp, text Text, rng Range) []Range {
	if re == nil {
		return lineRanges(text, rng)
	}
	data := readRange(text, rng)
	idxs := re.FindAllIndex(data, -1)
	out := make([]Range, 0, len(idxs))
	size := text.Size()
	for _, m := range idxs {
		start, end := rng.Start+m[0], rng.Start+m[1]
		if start == end {
			// Suppress an empty match at EOF right after a newline.
			if end == size && end > 0 && text.ByteAt(end-1) == '\n' {
				continue
			}
		}
		out = append(out, Range{start, end})
	}
	return out
}

func lineRanges(text Text, rng Range) []Range {
	var out []Range
	line := text.LineNumber(rng.Start)
	for {
		start := text.LinePos(line)
		if start >= rng.End {
			break
		}
		end := text.LinePos(line + 1)
		if end > rng.End {
			end = rng.End
		}
		out = append(out, Range{start, end})
		if end >= rng.End {
			break
		}
		line++
	}
	return out
}

func complementRanges(matches []Range, rng Range) []Range {
	var out []Range
	cursor := rng.Start
	for _, m := range matches {
		if m.Start > cursor {
			out = append(out, Range{cursor, m.Start})
		}
		cursor = m.End
	}
	if cursor < rng.End || len(matches) == 0 {
		out = append(out, Range{cursor, rng.End})
	}
	return out
}

func readRange(text Text, r Range) []byte {
	out := make([]byte, r.End-r.Start)
	for i := r.Start; i < r.End; i++ {
		out[i-r.Start] = text.ByteAt(i)
	}
	return out
}
