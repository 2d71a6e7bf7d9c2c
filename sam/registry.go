package sam

import (
	"sort"
	"strings"
)

// CommandFlag is a bitmask controlling a CommandDef's argument shape and
// execution semantics, mirroring original_source/sam.c's CMD_* flags.
type CommandFlag uint32

const (
	FlagCMD CommandFlag = 1 << iota
	FlagRegex
	FlagRegexDefault
	FlagCount
	FlagText
	FlagShell
	FlagForce
	FlagArgv
	FlagAddressNone
	FlagAddressPos
	FlagAddressLine
	FlagAddressAfter
	FlagAddressAll
	FlagAddressAll1Cursor
	FlagWin
	FlagOnce
	FlagLoop
	FlagDestructive
)

// HandlerFunc is the shape every command body implements: given the
// engine, the window the command applies to (nil for editor commands
// that are not window-scoped), the parsed Command, the selection (nil
// for ONCE commands), and the range the selection/address resolved to.
type HandlerFunc func(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error

// CommandDef is a builtin or user-registered command's static shape.
type CommandDef struct {
	Name           string
	Help           string
	Flags          CommandFlag
	AddressDefault CommandFlag
	Fn             HandlerFunc
}

// Registry holds the immutable builtin table plus a mutable map of
// user-registered commands, looked up together by closest-prefix match —
// grounded on sam.c's map_closest/lookup_command_definition (deliberately
// not edwood's own cmdlookup in edit.go, which is exact-match only).
type Registry struct {
	builtins map[string]*CommandDef
	user     map[string]*CommandDef
}

// NewRegistry returns a Registry preloaded with the builtin command
// table (see builtinCommands in handlers_sam.go / handlers_editor.go).
func NewRegistry() *Registry {
	r := &Registry{builtins: make(map[string]*CommandDef), user: make(map[string]*CommandDef)}
	for _, table := range [][]CommandDef{builtinCommands, editorCommands} {
		for _, def := range table {
			d := def
			r.builtins[d.Name] = &d
		}
	}
	return r
}

// Register adds a user command, visible to Lookup and Help.
func (r *Registry) Register(def CommandDef) {
	d := def
	r.user[d.Name] = &d
}

// Unregister removes a user command by name. It is a no-op if absent.
func (r *Registry) Unregister(name string) {
	delete(r.user, name)
}

// Lookup finds the CommandDef whose name is the closest match to name:
// an exact match wins outright; otherwise the unique command for which
// name is a prefix is returned. Ambiguous or absent prefixes return nil.
func (r *Registry) Lookup(name string) *CommandDef {
	if d, ok := r.user[name]; ok {
		return d
	}
	if d, ok := r.builtins[name]; ok {
		return d
	}
	return closestPrefix(name, r.user, r.builtins)
}

func closestPrefix(name string, tables ...map[string]*CommandDef) *CommandDef {
	if name == "" {
		return nil
	}
	var match *CommandDef
	for _, table := range tables {
		for cname, def := range table {
			if strings.HasPrefix(cname, name) {
				if match != nil && match != def {
					return nil // ambiguous prefix
				}
				match = def
			}
		}
	}
	return match
}

// All returns every visible CommandDef (user commands shadow builtins of
// the same name), sorted by name, for the help printer.
func (r *Registry) All() []*CommandDef {
	seen := make(map[string]*CommandDef)
	for name, d := range r.builtins {
		seen[name] = d
	}
	for name, d := range r.user {
		seen[name] = d
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*CommandDef, 0, len(names))
	for _, n := range names {
		out = append(out, seen[n])
	}
	return out
}
