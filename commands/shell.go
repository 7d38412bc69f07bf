package commands

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/smallsh/core/config"
	"github.com/josephlewis42/smallsh/core/launch"
	"github.com/josephlewis42/smallsh/core/pool"
)

// CommentPrefix marks lines that are skipped without running anything.
const CommentPrefix = "#"

type Shell struct {
	Pool     *pool.Pool
	Launcher *launch.Launcher
	Readline *readline.Instance
	Color    ColorPrinter
	// Prompt is expanded before each line is read, see prompt().
	Prompt   string

	Stdout io.Writer
	Stderr io.Writer

	Getwd       func() (string, error)
	Chdir       func(string) error
	UserHomeDir func() (string, error)

	// KillBackgroundOnExit sends SIGTERM to background processes when the
	// exit builtin runs.
	KillBackgroundOnExit bool

	Log *log.Logger

	lastRet int

	// Set to true to quit the shell
	Quit bool
}

// NewShell creates a shell that runs commands through the given pool and
// launcher using the host's working directory.
func NewShell(cfg *config.Configuration, p *pool.Pool, l *launch.Launcher, stdout, stderr io.Writer) *Shell {
	return &Shell{
		Pool:                 p,
		Launcher:             l,
		Color:                ColorPrinter{Mode: cfg.Color},
		Prompt:               cfg.Prompt,
		Stdout:               stdout,
		Stderr:               stderr,
		Getwd:                os.Getwd,
		Chdir:                os.Chdir,
		UserHomeDir:          os.UserHomeDir,
		KillBackgroundOnExit: cfg.KillBackgroundOnExit,
		Log:                  log.New(io.Discard, "", 0),
	}
}

// NewReadline creates the line editor for an interactive session. Writes to
// the returned instance don't clobber the line being edited, so it's also
// where pool notices should go.
func NewReadline(cfg *config.Configuration, stdin io.ReadCloser, stdout, stderr io.Writer) (*readline.Instance, error) {
	rlCfg := &readline.Config{
		HistoryFile: cfg.HistoryPath(),
		Stdin:       readline.NewCancelableStdin(stdin),
		Stdout:      stdout,
		Stderr:      stderr,
	}

	if err := rlCfg.Init(); err != nil {
		return nil, err
	}

	return readline.NewEx(rlCfg)
}

// LastReturn holds the status of the most recent builtin, program or
// launch failure.
func (s *Shell) LastReturn() int {
	return s.lastRet
}

// RunInteractive reads and runs lines until the input closes or exit is
// called.
func (s *Shell) RunInteractive() int {
	for !s.Quit {
		s.Readline.SetPrompt(s.prompt())
		line, err := s.Readline.Readline()

		switch {
		case err == io.EOF:
			return s.lastRet // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue
		case err != nil:
			s.Log.Printf("Error readline: %v", err)
			continue

		default:
			s.RunCommand(line)
		}
	}
	return s.lastRet
}

// RunCommand runs a single line of input.
func (s *Shell) RunCommand(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, CommentPrefix) {
		return
	}

	args, err := shlex.Split(trimmed, true)
	if err != nil {
		fmt.Fprintf(s.Stderr, "smallsh: syntax error: %v\n", err)
		s.lastRet = 2
		return
	}
	if len(args) == 0 {
		return
	}

	s.executeProgramOrBuiltin(args)
}

func (s *Shell) executeProgramOrBuiltin(args []string) {
	// Execute builtins
	if builtin, ok := AllBuiltins[args[0]]; ok {
		s.lastRet = builtin.Main(s, args)
		return
	}

	// Execute program
	background, err := s.Launcher.Launch(args[0], args[1:])
	if err != nil {
		fmt.Fprintf(s.Stderr, "%s: %v\n", args[0], err)
		s.lastRet = 127
		return
	}
	if background {
		s.lastRet = 0
		return
	}

	if code, ok := s.Pool.LastExitCode(); ok {
		s.lastRet = code
	} else if status, ok := s.Pool.LastStatus(); ok && status.Signaled() {
		s.lastRet = 128 + int(status.Signal)
	}
}
