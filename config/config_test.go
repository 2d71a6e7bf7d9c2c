package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rjkroege/samengine/sam"
)

func TestLoadIfExistsMissingFileReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.toml")
	f, err := LoadIfExists(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Options) != 0 || len(f.Bind) != 0 {
		t.Fatalf("got %+v, want empty File", f)
	}
}

func TestLoadParsesOptionsAndBindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sam.toml")
	body := `
[options]
tabwidth = 4
expandtab = true

[[bind]]
mode = "normal"
lhs = "jj"
rhs = "<Escape>"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Bind) != 1 || f.Bind[0].LHS != "jj" || f.Bind[0].RHS != "<Escape>" {
		t.Fatalf("Bind = %+v", f.Bind)
	}
	if f.Options["tabwidth"] != int64(4) {
		t.Fatalf("tabwidth = %v", f.Options["tabwidth"])
	}
	if f.Options["expandtab"] != true {
		t.Fatalf("expandtab = %v", f.Options["expandtab"])
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error loading a nonexistent file")
	}
}

func TestApplySeedsOptionsAsStrings(t *testing.T) {
	f := &File{Options: map[string]any{
		"tabwidth":  int64(4),
		"expandtab": true,
		"shell":     "/bin/zsh",
	}}
	opts := sam.NewOptionTable(sam.NewEngine())
	if err := Apply(f, opts, nil); err != nil {
		t.Fatal(err)
	}
	if got := opts.Number("tabwidth"); got != 4 {
		t.Fatalf("tabwidth = %d", got)
	}
	if !opts.Bool("expandtab") {
		t.Fatal("expandtab should be true")
	}
	if got := opts.String("shell"); got != "/bin/zsh" {
		t.Fatalf("shell = %q", got)
	}
}

type fakeAliases struct {
	binds [][3]string
}

func (a *fakeAliases) Bind(mode, lhs, rhs string) error {
	a.binds = append(a.binds, [3]string{mode, lhs, rhs})
	return nil
}
func (a *fakeAliases) Unbind(mode, lhs string) error { return nil }

func TestApplyBindsAliasesDefaultingMode(t *testing.T) {
	f := &File{Bind: []Binding{{LHS: "jj", RHS: "<Escape>"}}}
	opts := sam.NewOptionTable(sam.NewEngine())
	aliases := &fakeAliases{}
	if err := Apply(f, opts, aliases); err != nil {
		t.Fatal(err)
	}
	if len(aliases.binds) != 1 || aliases.binds[0] != [3]string{"normal", "jj", "<Escape>"} {
		t.Fatalf("binds = %v", aliases.binds)
	}
}

func TestApplyNilAliasesSkipsBindings(t *testing.T) {
	f := &File{Bind: []Binding{{Mode: "visual", LHS: "x", RHS: "y"}}}
	opts := sam.NewOptionTable(sam.NewEngine())
	if err := Apply(f, opts, nil); err != nil {
		t.Fatal(err)
	}
}

func TestItoa(t *testing.T) {
	cases := map[int64]string{0: "0", 7: "7", -7: "-7", 123: "123", -456: "-456"}
	for n, want := range cases {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
}
