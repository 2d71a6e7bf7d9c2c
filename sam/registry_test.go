package sam

import "testing"

func TestRegistryLookupExact(t *testing.T) {
	r := NewRegistry()
	d := r.Lookup("d")
	if d == nil || d.Name != "d" {
		t.Fatalf("Lookup(%q) = %v", "d", d)
	}
}

func TestRegistryLookupPrefix(t *testing.T) {
	r := NewRegistry()
	// "ea" is an unambiguous prefix of "earlier".
	d := r.Lookup("ea")
	if d == nil || d.Name != "earlier" {
		t.Fatalf("Lookup(%q) = %v, want earlier", "ea", d)
	}
}

func TestRegistryLookupAmbiguous(t *testing.T) {
	r := NewRegistry()
	r.Register(CommandDef{Name: "splat"})
	r.Register(CommandDef{Name: "splot"})
	if d := r.Lookup("spl"); d != nil {
		t.Fatalf("Lookup(%q) = %v, want nil (ambiguous)", "spl", d)
	}
}

func TestRegistryUserShadowsBuiltin(t *testing.T) {
	r := NewRegistry()
	custom := CommandDef{Name: "d", Help: "overridden"}
	r.Register(custom)
	if got := r.Lookup("d"); got.Help != "overridden" {
		t.Fatalf("Lookup(%q).Help = %q, want overridden", "d", got.Help)
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(CommandDef{Name: "zz"})
	if r.Lookup("zz") == nil {
		t.Fatal("expected zz to be registered")
	}
	r.Unregister("zz")
	if r.Lookup("zz") != nil {
		t.Fatal("expected zz to be gone")
	}
}

func TestRegistryAllSorted(t *testing.T) {
	r := NewRegistry()
	all := r.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].Name > all[i].Name {
			t.Fatalf("All() not sorted: %q before %q", all[i-1].Name, all[i].Name)
		}
	}
}

func TestRegistryLookupEmptyName(t *testing.T) {
	r := NewRegistry()
	if d := r.Lookup(""); d != nil {
		t.Fatalf("Lookup(\"\") = %v, want nil", d)
	}
}
