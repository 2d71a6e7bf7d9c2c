package sam

import (
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

func envShell() string {
	return os.Getenv("SHELL")
}

// runInteractive launches argv under a pseudo-terminal instead of a
// plain pipe, for the `interactive` option (§4.8): some filters (an
// interactive REPL used as a sam(1) filter) need a tty to behave.
// Interrupting kills the child process.
func runInteractive(argv []string, input []byte, interrupt <-chan struct{}) ([]byte, []byte, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	f, err := pty.Start(cmd)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	if len(input) > 0 {
		go func() {
			f.Write(input)
		}()
	}

	done := make(chan struct{})
	var out []byte
	go func() {
		out, _ = io.ReadAll(f)
		close(done)
	}()

	select {
	case <-done:
	case <-interrupt:
		_ = cmd.Process.Kill()
		<-done
	}
	err = cmd.Wait()
	return out, nil, err
}

// pipeMode selects which of the four shell-pipe commands (>,<,|,!)
// cmdPipe is instantiated for, grounded on original_source/vis-cmds.c's
// command_pipeout/command_pipein/command_filter/command_launch.
type pipeMode int

const (
	pipeWriteOnly pipeMode = iota // '>': range is stdin, stdout goes to UI.InfoShow
	pipeReadInto                  // '<': no stdin, stdout replaces the range
	pipeFilter                    // '|': range is stdin, stdout replaces the range
	pipeLaunch                    // '!': no stdin, no text change; waits and reports failure
)

// cmdPipe returns the >/</|/! handler for mode. It shells out through the
// Process collaborator, honouring e.Interrupt the way
// original_source/vis-cmds.c aborts a running filter on SIGINT: an
// interrupted pipe leaves the buffer untouched and reports ErrInterrupted.
func cmdPipe(mode pipeMode) HandlerFunc {
	return func(e *Engine, win Window, cmd *Command, sel Selection, rng Range) error {
		if e.Process == nil {
			return newError(ErrShell, 0, "no process collaborator configured")
		}
		argv := shellArgv(cmd.Shell)

		var input []byte
		if mode == pipeWriteOnly || mode == pipeFilter {
			input = readRange(win.Text(), rng)
		}

		var stdout, stderr []byte
		var err error
		if e.Options != nil && e.Options.Bool("interactive") {
			stdout, stderr, err = runInteractive(argv, input, e.Interrupt)
		} else {
			stdout, stderr, err = e.Process.Pipe(argv, input, e.Interrupt)
		}
		if e.interrupted() {
			return newError(ErrInterrupted, 0, "interrupted: %s", cmd.Shell)
		}
		if err != nil {
			if len(stderr) > 0 && e.UI != nil {
				e.UI.InfoShow("%s", stderr)
			}
			return wrapError(ErrShell, 0, err, "pipe command failed")
		}

		switch mode {
		case pipeWriteOnly:
			if e.UI != nil && len(stdout) > 0 {
				e.UI.InfoShow("%s", stdout)
			}
		case pipeLaunch:
			// No window, no text mutation: side effects only.
		case pipeReadInto:
			e.transcriptFor(win).Enqueue(&Change{Kind: ChangeBoth, Win: win, Sel: sel, Range: rng, Data: stdout})
		case pipeFilter:
			e.transcriptFor(win).Enqueue(&Change{Kind: ChangeBoth, Win: win, Sel: sel, Range: rng, Data: stdout})
		}
		return nil
	}
}

// shellArgv wraps a shell command line the way vis and edwood both do:
// handed to the user's $SHELL as a single -c argument rather than
// tokenized in Go, so quoting/globbing/pipelines behave the way the
// user typed them.
func shellArgv(command string) []string {
	shell := "/bin/sh"
	if s := envShell(); s != "" {
		shell = s
	}
	return []string{shell, "-c", command}
}
