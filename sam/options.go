package sam

import (
	"strconv"
	"strings"
)

const maxOptionNumber = 1<<31 - 1 // I32_MAX, per §4.8's Number option range

// OptionKind classifies a builtin option's value type, grounded on
// original_source/vis-cmds.c's command_set OPTION_TYPE_* switch.
type OptionKind int

const (
	OptionBool OptionKind = iota
	OptionNumber
	OptionString
)

// optionDef is one entry of the builtin option table (§4.8).
type optionDef struct {
	Name    string
	Kind    OptionKind
	Default string
}

var builtinOptions = []optionDef{
	{"shell", OptionString, "/bin/sh"},
	{"escdelay", OptionNumber, "50"},
	{"autoindent", OptionBool, "false"},
	{"expandtab", OptionBool, "false"},
	{"tabwidth", OptionNumber, "8"},
	{"show-spaces", OptionBool, "false"},
	{"show-tabs", OptionBool, "false"},
	{"show-newlines", OptionBool, "false"},
	{"show-eof", OptionBool, "true"},
	{"statusbar", OptionBool, "true"},
	{"number", OptionBool, "false"},
	{"number-relative", OptionBool, "false"},
	{"cursor-line", OptionBool, "false"},
	{"color-column", OptionNumber, "0"},
	{"savemethod", OptionString, "atomic"},
	{"loadmethod", OptionString, "read"},
	{"change-256colors", OptionBool, "false"},
	{"layout", OptionString, "horizontal"},
	{"ignorecase", OptionBool, "false"},
	{"breakat", OptionString, " ^I,.:;!?"},
	{"wrapcolumn", OptionNumber, "0"},
	{"interactive", OptionBool, "false"},
}

// OptionTable holds live option values, seeded from builtinOptions (or a
// config file, see the config package) and mutated by the `set` command.
type OptionTable struct {
	e      *Engine
	defs   map[string]*optionDef
	values map[string]string
}

// NewOptionTable returns an OptionTable seeded with builtinOptions'
// defaults.
func NewOptionTable(e *Engine) *OptionTable {
	t := &OptionTable{e: e, defs: make(map[string]*optionDef), values: make(map[string]string)}
	for i := range builtinOptions {
		d := &builtinOptions[i]
		t.defs[d.Name] = d
		t.values[d.Name] = d.Default
	}
	return t
}

// Seed overwrites the default for name, e.g. from a loaded config file.
// It does not require name to already exist so host-defined options can
// be seeded too.
func (t *OptionTable) Seed(name, value string) {
	if _, ok := t.defs[name]; !ok {
		t.defs[name] = &optionDef{Name: name, Kind: OptionString}
	}
	t.values[name] = value
}

func (t *OptionTable) String(name string) string { return t.values[name] }

func (t *OptionTable) Bool(name string) bool {
	b, _ := strconv.ParseBool(t.values[name])
	return b
}

func (t *OptionTable) Number(name string) int {
	n, _ := strconv.Atoi(t.values[name])
	return n
}

func (t *OptionTable) lookup(name string) (string, *optionDef) {
	if d, ok := t.defs[name]; ok {
		return name, d
	}
	var matchName string
	var match *optionDef
	for n, d := range t.defs {
		if len(n) >= len(name) && n[:len(name)] == name {
			if match != nil && match != d {
				return "", nil
			}
			matchName, match = n, d
		}
	}
	return matchName, match
}

// cmdSet implements `set`, grounded on original_source/vis-cmds.c's
// command_set: NAME[=VALUE], NAME! (toggle, bool only), or !NAME
// (equivalent toggle prefix), resolved by closest-unique-prefix.
func cmdSet(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
	if len(cmd.Argv) == 0 {
		return newError(ErrCommand, 0, "usage: set option[=value]")
	}
	for _, arg := range cmd.Argv {
		if err := e.Options.apply(arg); err != nil {
			return err
		}
	}
	return nil
}

func (t *OptionTable) apply(arg string) error {
	negate := false
	if len(arg) > 0 && arg[0] == '!' {
		negate = true
		arg = arg[1:]
	}
	toggle := false
	if len(arg) > 0 && arg[len(arg)-1] == '!' {
		toggle = true
		arg = arg[:len(arg)-1]
	}

	name, value, hasValue := arg, "", false
	for i := 0; i < len(arg); i++ {
		if arg[i] == '=' {
			name, value, hasValue = arg[:i], arg[i+1:], true
			break
		}
	}

	canon, def := t.lookup(name)
	if def == nil {
		return newError(ErrCommand, 0, "unknown or ambiguous option %q", name)
	}

	switch {
	case negate || toggle:
		if def.Kind != OptionBool {
			return newError(ErrCommand, 0, "option %q is not boolean", canon)
		}
		cur, _ := strconv.ParseBool(t.values[canon])
		t.values[canon] = strconv.FormatBool(!cur)
	case hasValue:
		switch def.Kind {
		case OptionNumber:
			n, err := strconv.Atoi(value)
			if err != nil {
				return newError(ErrCommand, 0, "option %q expects a number", canon)
			}
			if n < 0 || n > maxOptionNumber {
				return newError(ErrCommand, 0, "option %q must be between 0 and %d", canon, maxOptionNumber)
			}
			t.values[canon] = value
		case OptionBool:
			b, err := parseBoolOption(value)
			if err != nil {
				return newError(ErrCommand, 0, "option %q expects yes/no/on/off", canon)
			}
			t.values[canon] = strconv.FormatBool(b)
		default:
			t.values[canon] = value
		}
	case def.Kind == OptionBool:
		t.values[canon] = "true"
	default:
		t.e.Log.WithField("option", canon).Info(t.values[canon])
	}
	return nil
}

// parseBoolOption accepts strconv.ParseBool's forms plus the yes/no/on/off
// keywords required by §4.8's `set bool=value`.
func parseBoolOption(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	default:
		return strconv.ParseBool(s)
	}
}
