package sam

import (
	"regexp"
	"strconv"
	"strings"
)

// Count is an inclusive iteration interval; Mod selects "every n-th"
// instead of a range.
type Count struct {
	Start, End int
	Mod        bool
}

// Matches reports whether iteration (1-based) should run the handler,
// per §8's count-monotonicity property.
func (c Count) Matches(iteration int) bool {
	if c.Mod {
		if c.Start <= 0 {
			return false
		}
		return iteration%c.Start == 0
	}
	return iteration >= c.Start && iteration <= c.End
}

// resolveNegative adds total to any negative bound, per §3's Count
// lifecycle note ("Negative bounds are resolved at loop-init by adding
// the match total").
func (c Count) resolveNegative(total int) Count {
	if c.Start < 0 {
		c.Start += total
	}
	if c.End < 0 {
		c.End += total
	}
	return c
}

const maxInt = int(^uint(0) >> 1)

// Command is one parsed invocation: a CommandDef plus whatever arguments
// its Flags required, and optionally a nested Cmd (x/y/g/v/X/Y/group) or
// sibling Next (within a group).
type Command struct {
	Def *CommandDef

	Addr    Address
	HasAddr bool

	Count    Count
	HasCount bool
	Regex    *regexp.Regexp
	Text     []byte
	Shell    string
	Argv     []string
	Force    bool

	Cmd  *Command // nested sub-command (x/y/g/v/X/Y, or group's first child)
	Next *Command // sibling within a group

	Iteration int
}

// lastRegex/lastShell track the most recently compiled pattern / shell
// string for REGEX_DEFAULT and the "empty shell command reuses the last
// one" rule (§4.5). The state lives on the Engine and Exec resets it at
// the start of every call, so reuse only reaches back within one line.
type commandParseState struct {
	lastRegex *regexp.Regexp
	lastShell string
}

// ParseCommand consumes a command body for def from ts, in the fixed
// order FORCE, TEXT, SHELL, COUNT, REGEX, CMD, ARGV, per §4.5.
func ParseCommand(e *Engine, ts *TokenStream, def *CommandDef) (*Command, error) {
	cmd := &Command{Def: def}

	if def.Flags&FlagForce != 0 {
		cmd.Force = ts.CheckPopForceFlag()
	}

	if def.Flags&FlagText != 0 {
		n := ts.TryPopNumber()
		count := 1
		if n.Kind == Number {
			v, _ := strconv.Atoi(ts.Text(n))
			count = v
		}
		text, err := parseDelimitedText(ts, e.scratch)
		if err != nil {
			return nil, err
		}
		cmd.Text = text
		cmd.Count = Count{Start: count, End: count}
		cmd.HasCount = true
	}

	if def.Flags&FlagShell != 0 {
		start := ts.Peek().Start
		shell := strings.TrimSpace(string(ts.Raw[start:]))
		for !ts.AtEnd() {
			ts.Pop()
		}
		if shell == "" {
			shell = e.parseState.lastShell
		} else {
			e.parseState.lastShell = shell
		}
		if shell == "" {
			return nil, newError(ErrShell, start, "no shell command")
		}
		cmd.Shell = shell
	}

	if def.Flags&FlagCount != 0 {
		c, has, err := parseCount(ts)
		if err != nil {
			return nil, err
		}
		cmd.Count = c
		cmd.HasCount = has
	}

	if def.Flags&FlagRegex != 0 {
		t := ts.Peek()
		if t.Kind == Delimiter && (ts.Text(t) == "/" || ts.Text(t) == "?") {
			ts.Pop()
			d := ts.Text(t)[0]
			start, end := ts.Peek().Start, ts.Peek().Start
			for p := ts.Peek(); p.Kind != Invalid && !(p.Kind == Delimiter && ts.Text(p)[0] == d); p = ts.Peek() {
				end = p.End()
				ts.Pop()
			}
			if end == start {
				return nil, newError(ErrRegex, t.Start, "expected regular expression")
			}
			ts.Pop() // closing delimiter; a no-op at end of input
			re, err := regexp.Compile(string(ts.Raw[start:end]))
			if err != nil {
				return nil, wrapError(ErrRegex, start, err, "invalid regular expression")
			}
			cmd.Regex = re
			e.parseState.lastRegex = re
		} else if def.Flags&FlagRegexDefault != 0 {
			if e.parseState.lastRegex == nil {
				return nil, newError(ErrRegex, t.Start, "no previous regular expression")
			}
			cmd.Regex = e.parseState.lastRegex
		}
	}

	if def.Flags&FlagCMD != 0 {
		sub, err := parseNestedCommand(e, ts, def.Name == "X" || def.Name == "Y")
		if err != nil {
			return nil, err
		}
		cmd.Cmd = sub
	}

	if def.Flags&FlagArgv != 0 {
		cmd.Argv = parseArgv(ts, e.scratch)
	}

	return cmd, nil
}

// parseCount parses an optional count clause: FlagCount marks a command
// as count-capable, not count-mandatory (§4.7's `q [n]`), so the absence
// of a count token is not an error — it reports ok=false and leaves cmd
// to fall back to its own default.
func parseCount(ts *TokenStream) (c Count, ok bool, err error) {
	t := ts.Peek()
	if t.Kind == Delimiter && ts.Text(t) == "%" {
		ts.Pop()
		n := ts.TryPopNumber()
		if n.Kind != Number {
			return Count{}, false, newError(ErrCount, t.Start, "expected number after '%%'")
		}
		v, _ := strconv.Atoi(ts.Text(n))
		return Count{Start: v, End: v, Mod: true}, true, nil
	}
	n := ts.TryPopNumber()
	if n.Kind != Number {
		return Count{}, false, nil
	}
	start, _ := strconv.Atoi(ts.Text(n))
	end := maxInt
	if start == 0 {
		end = 0
	}
	if comma := ts.Peek(); comma.Kind == Delimiter && ts.Text(comma) == "," {
		ts.Pop()
		m := ts.TryPopNumber()
		if m.Kind == Number {
			end, _ = strconv.Atoi(ts.Text(m))
		}
	}
	return Count{Start: start, End: end}, true, nil
}

// parseDelimitedText reads a `/.../`-style body and copies the unescaped
// result into arena, so the Command's Text outlives the per-token Raw
// buffer it was assembled from.
func parseDelimitedText(ts *TokenStream, arena *Arena) ([]byte, error) {
	delim := ts.Peek()
	if delim.Kind != Delimiter {
		return nil, newError(ErrText, delim.Start, "expected delimiter")
	}
	ts.Pop()
	d := ts.Text(delim)[0]
	var raw []byte
	prevEnd := delim.End()
	for {
		t := ts.Peek()
		if t.Kind == Invalid {
			return nil, newError(ErrText, delim.Start, "unterminated text")
		}
		text := ts.Text(t)
		if t.Kind == Delimiter && text[0] == d {
			// A delimiter directly after an odd run of backslashes is escaped.
			n := 0
			for n < len(raw) && raw[len(raw)-1-n] == '\\' {
				n++
			}
			if t.Start != prevEnd || n%2 == 0 {
				ts.Pop()
				out := unescapeText(string(raw), d)
				buf := arena.Alloc(len(out))
				copy(buf, out)
				return buf, nil
			}
		}
		ts.Pop()
		raw = append(raw, text...)
		prevEnd = t.End()
	}
}

func unescapeText(s string, delim byte) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch n := s[i+1]; n {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '\\':
				out = append(out, '\\')
			case delim:
				out = append(out, delim)
			default:
				out = append(out, '\\', n)
			}
			i++
			continue
		}
		out = append(out, c)
	}
	return out
}

// parseArgv splits the rest of the line into shell-style argv entries,
// pushing each one through arena so Command.Argv survives past this
// call's token buffer the same way parseDelimitedText's Text does.
func parseArgv(ts *TokenStream, arena *Arena) []string {
	var argv []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			argv = append(argv, arena.PushString(cur.String()))
			cur.Reset()
		}
	}
	prevEnd := -1
	for !ts.AtEnd() {
		t := ts.Peek()
		if t.Start != prevEnd {
			flush() // whitespace separates entries; adjacent tokens join
		}
		if t.Kind == Delimiter && (ts.Text(t) == "'" || ts.Text(t) == "\"") {
			ts.Pop()
			prevEnd = t.End()
			q := ts.Text(t)[0]
			for {
				inner := ts.Peek()
				if inner.Kind == Invalid {
					break
				}
				ts.Pop()
				prevEnd = inner.End()
				if inner.Kind == Delimiter && ts.Text(inner)[0] == q {
					break
				}
				cur.WriteString(ts.Text(inner))
			}
			continue
		}
		cur.WriteString(ts.Text(t))
		prevEnd = t.End()
		ts.Pop()
	}
	flush()
	return argv
}

// parseNestedCommand parses the CMD argument of x/y/g/v/X/Y/group: a
// single sub-command, dispatched through the same registry. For X/Y the
// nested command is wrapped in a synthetic "select" command (per §4.5)
// so file-scoped iteration composes with selection creation.
func parseNestedCommand(e *Engine, ts *TokenStream, wrapSelect bool) (*Command, error) {
	if ts.Peek().Kind == Invalid {
		return nil, nil
	}
	sub, err := parseOneCommand(e, ts)
	if err != nil {
		return nil, err
	}
	if !wrapSelect {
		return sub, nil
	}
	return &Command{Def: selectCommandDef, Cmd: sub}, nil
}

var selectCommandDef = &CommandDef{
	Name:           "select",
	Flags:          FlagAddressNone,
	AddressDefault: FlagAddressLine,
	Fn: func(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
		return runNested(e, win, cmd.Cmd, sel, rng)
	},
}
