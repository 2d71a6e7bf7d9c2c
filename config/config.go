// Package config loads engine option defaults and key-alias bindings
// from a TOML file, seeded into an OptionTable before any `set` command
// runs.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/rjkroege/samengine/sam"
)

// File is the on-disk shape of a sam config file, e.g.:
//
//	[options]
//	tabwidth = 4
//	expandtab = true
//
//	[[bind]]
//	mode = "normal"
//	lhs = "jj"
//	rhs = "<Escape>"
type File struct {
	Options map[string]any `toml:"options"`
	Bind    []Binding      `toml:"bind"`
}

// Binding is one [[bind]] table entry.
type Binding struct {
	Mode string `toml:"mode"`
	LHS  string `toml:"lhs"`
	RHS  string `toml:"rhs"`
}

// Load parses path and returns its File representation.
func Load(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadIfExists is Load, except a missing file is not an error: it
// returns an empty File so callers can unconditionally Apply it.
func LoadIfExists(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, err
	}
	return Load(path)
}

// Apply seeds opts with f's [options] table and binds f's [[bind]]
// entries into aliases, if one is configured.
func Apply(f *File, opts *sam.OptionTable, aliases sam.KeyAliases) error {
	for name, v := range f.Options {
		opts.Seed(name, toString(v))
	}
	if aliases == nil {
		return nil
	}
	for _, b := range f.Bind {
		mode := b.Mode
		if mode == "" {
			mode = "normal"
		}
		if err := aliases.Bind(mode, b.LHS, b.RHS); err != nil {
			return err
		}
	}
	return nil
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return itoa(x)
	case float64:
		return itoa(int64(x))
	default:
		return ""
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
