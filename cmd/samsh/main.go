// Command samsh is a line-oriented REPL for the sam command engine: it
// reads one command line at a time from stdin, executes it against an
// in-memory window set, and prints a "* " prompt before each line and
// any error prefixed with '?'. It does not print the buffer or the
// selections after a command.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"

	"github.com/rjkroege/samengine/config"
	"github.com/rjkroege/samengine/runtime"
	"github.com/rjkroege/samengine/sam"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to a TOML config file")
	flag.Parse()

	ws := runtime.NewWindowSet()
	var win sam.Window
	for _, name := range flag.Args() {
		w, err := ws.Open(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "samsh: %v\n", err)
			os.Exit(1)
		}
		win = w
	}
	if win == nil {
		w, _ := ws.New("")
		win = w
	}

	e := sam.NewEngine()
	e.WindowSet = ws
	e.Registers = runtime.NewRegisters()
	e.Process = runtime.Process{}
	keys := runtime.NewKeyAliases()
	e.KeyAliases = keys
	e.History = runtime.NewHistory(ws)
	e.UI = stdoutUI{}

	if f, err := config.LoadIfExists(*configPath); err == nil {
		_ = config.Apply(f, e.Options, e.KeyAliases)
	}

	runREPL(e, ws, &win)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".samshrc.toml")
}

// runREPL drives the engine from stdin, one command per line, printing
// the "* " prompt and, for a failed Exec, the error to stderr. Output of
// a successful Exec appears only through the UI collaborator.
func runREPL(e *sam.Engine, ws *runtime.WindowSet, win *sam.Window) {
	restore := enterRawMode()
	defer restore()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stdout, "* ")
	for scanner.Scan() {
		line := scanner.Text()
		if err := e.Exec([]byte(line), *win); err != nil {
			fmt.Fprintf(os.Stderr, "?%v\n", err)
		}
		if e.Exited {
			os.Exit(e.ExitCode)
		}
		fmt.Fprint(os.Stdout, "* ")
	}
}

// enterRawMode disables line buffering/echo on stdin via termios, the
// way cmd/win's terminal handling does, returning a func that restores
// the previous mode. It is a no-op (returning a no-op restore) when
// stdin is not a terminal.
func enterRawMode() func() {
	fd := os.Stdin.Fd()
	var saved unix.Termios
	if err := termios.Tcgetattr(fd, &saved); err != nil {
		return func() {}
	}
	raw := saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	_ = termios.Tcsetattr(fd, termios.TCSANOW, &raw)
	return func() {
		_ = termios.Tcsetattr(fd, termios.TCSANOW, &saved)
	}
}

type stdoutUI struct{}

func (stdoutUI) InfoShow(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}

func (stdoutUI) TermkeySetWaittime(ms int) {}

func (stdoutUI) Arrange(layout string) {}
