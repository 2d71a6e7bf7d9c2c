package main

import (
	"os"
	"path/filepath"
	"testing"
)

// runREPL reads os.Stdin directly and enterRawMode touches the real
// terminal fd, so neither is exercised here; main wires those two plus
// process exit codes and is left to a manual smoke test.

func TestDefaultConfigPathJoinsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory in this environment")
	}
	want := filepath.Join(home, ".samshrc.toml")
	if got := defaultConfigPath(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStdoutUIMethodsDoNotPanic(t *testing.T) {
	var ui stdoutUI
	ui.InfoShow("count=%d", 3)
	ui.TermkeySetWaittime(50)
	ui.Arrange("column")
}
