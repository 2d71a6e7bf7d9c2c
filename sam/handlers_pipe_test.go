package sam

import "testing"

// Interactive (pty-backed) pipes are not exercised here: runInteractive
// launches a real subprocess under a pseudo-terminal, which has no
// hermetic fake to stand in for it.

func TestCmdPipeNoProcessErrors(t *testing.T) {
	e := NewEngine()
	win := newFakeWindow("hello")
	cmd := &Command{Def: e.Registry.Lookup(">"), Shell: "cat"}
	err := cmdPipe(pipeWriteOnly)(e, win, cmd, nil, Range{0, 5})
	if se, ok := err.(*Error); !ok || se.Kind != ErrShell {
		t.Fatalf("got %v, want ErrShell", err)
	}
}

func TestCmdPipeWriteOnlySendsRangeAsStdin(t *testing.T) {
	e := NewEngine()
	proc := &fakeProcess{stdout: []byte("OUT")}
	ui := &fakeUI{}
	e.Process, e.UI = proc, ui
	win := newFakeWindow("hello world")
	cmd := &Command{Def: e.Registry.Lookup(">"), Shell: "cat"}
	if err := cmdPipe(pipeWriteOnly)(e, win, cmd, nil, Range{0, 5}); err != nil {
		t.Fatal(err)
	}
	if string(proc.lastInput) != "hello" {
		t.Fatalf("stdin = %q, want %q", proc.lastInput, "hello")
	}
	if len(ui.infos) != 1 || ui.infos[0] != "OUT" {
		t.Fatalf("UI.InfoShow calls = %v", ui.infos)
	}
	if string(win.text.Snapshot()) != "hello world" {
		t.Fatal("pipeWriteOnly must not mutate the buffer")
	}
}

func TestCmdPipeReadIntoInsertsStdout(t *testing.T) {
	e := NewEngine()
	e.Process = &fakeProcess{stdout: []byte("INSERTED")}
	win := newFakeWindow("START")
	cmd := &Command{Def: e.Registry.Lookup("<"), Shell: "echo"}
	if err := cmdPipe(pipeReadInto)(e, win, cmd, nil, Range{5, 5}); err != nil {
		t.Fatal(err)
	}
	tr := e.transcriptFor(win)
	if err := tr.Apply(win.text); err != nil {
		t.Fatal(err)
	}
	if got := string(win.text.Snapshot()); got != "STARTINSERTED" {
		t.Fatalf("got %q", got)
	}
}

func TestCmdPipeReadIntoReplacesNonEmptyRange(t *testing.T) {
	e := NewEngine()
	e.Process = &fakeProcess{stdout: []byte("NEW")}
	win := newFakeWindow("hello world")
	cmd := &Command{Def: e.Registry.Lookup("<"), Shell: "echo"}
	if err := cmdPipe(pipeReadInto)(e, win, cmd, nil, Range{0, 5}); err != nil {
		t.Fatal(err)
	}
	tr := e.transcriptFor(win)
	if err := tr.Apply(win.text); err != nil {
		t.Fatal(err)
	}
	if got := string(win.text.Snapshot()); got != "NEW world" {
		t.Fatalf("got %q, want the addressed range replaced, not just prefixed", got)
	}
}

func TestCmdPipeFilterReplacesRange(t *testing.T) {
	e := NewEngine()
	e.Process = &fakeProcess{stdout: []byte("FILTERED")}
	win := newFakeWindow("hello world")
	cmd := &Command{Def: e.Registry.Lookup("|"), Shell: "tr a-z A-Z"}
	if err := cmdPipe(pipeFilter)(e, win, cmd, nil, Range{0, 5}); err != nil {
		t.Fatal(err)
	}
	tr := e.transcriptFor(win)
	if err := tr.Apply(win.text); err != nil {
		t.Fatal(err)
	}
	if got := string(win.text.Snapshot()); got != "FILTERED world" {
		t.Fatalf("got %q", got)
	}
}

func TestCmdPipeLaunchRunsWithoutWindow(t *testing.T) {
	e := NewEngine()
	proc := &fakeProcess{stdout: []byte("ignored")}
	e.Process = proc
	cmd := &Command{Def: e.Registry.Lookup("!"), Shell: "true"}
	if err := cmdPipe(pipeLaunch)(e, nil, cmd, nil, Range{}); err != nil {
		t.Fatal(err)
	}
	if proc.lastInput != nil {
		t.Fatalf("pipeLaunch should send no stdin, got %q", proc.lastInput)
	}
}

func TestCmdPipeErrorReportsStderrToUI(t *testing.T) {
	e := NewEngine()
	ui := &fakeUI{}
	e.UI = ui
	e.Process = &fakeProcess{stderr: []byte("boom"), err: errFakePipe}
	win := newFakeWindow("hello")
	cmd := &Command{Def: e.Registry.Lookup(">"), Shell: "false"}
	err := cmdPipe(pipeWriteOnly)(e, win, cmd, nil, Range{0, 5})
	if se, ok := err.(*Error); !ok || se.Kind != ErrShell {
		t.Fatalf("got %v, want ErrShell", err)
	}
	if len(ui.infos) != 1 || ui.infos[0] != "boom" {
		t.Fatalf("UI.InfoShow calls = %v", ui.infos)
	}
}

func TestCmdPipeInterruptedReportsErrInterrupted(t *testing.T) {
	e := NewEngine()
	e.Process = &fakeProcess{stdout: []byte("too late")}
	ch := make(chan struct{})
	close(ch)
	e.Interrupt = ch
	win := newFakeWindow("hello")
	cmd := &Command{Def: e.Registry.Lookup(">"), Shell: "cat"}
	err := cmdPipe(pipeWriteOnly)(e, win, cmd, nil, Range{0, 5})
	if se, ok := err.(*Error); !ok || se.Kind != ErrInterrupted {
		t.Fatalf("got %v, want ErrInterrupted", err)
	}
}
