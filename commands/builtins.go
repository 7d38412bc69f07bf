package commands

import (
	"fmt"
	"sort"
	"strings"
	"syscall"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]*Builtin)

type ShellBuiltinFunc func(s *Shell, args []string) int

// Builtin is a command run inside the shell process.
type Builtin struct {
	// Short holds a one line description of the builtin.
	Short string
	Main  ShellBuiltinFunc
}

func addBuiltin(name, short string, fn ShellBuiltinFunc) {
	AllBuiltins[name] = &Builtin{Short: short, Main: fn}
}

// ListBuiltins returns the sorted names of all builtins.
func ListBuiltins() []string {
	var names []string
	for name := range AllBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cd is the cd shell builtin.
func Cd(s *Shell, args []string) int {
	switch len(args) {
	case 1:
		home, err := s.UserHomeDir()
		if err != nil {
			fmt.Fprintf(s.Stderr, "%s: %v\n", args[0], err)
			return 1
		}
		args = append(args, home)
		fallthrough
	case 2:
		if err := s.Chdir(args[1]); err != nil {
			fmt.Fprintf(s.Stderr, "%s: %v\n", args[0], err)
			return 1
		}
	default:
		fmt.Fprintf(s.Stderr, "%s: too many arguments\n", args[0])
		return 1
	}
	return 0
}

// Status reports the working directory and the state of the process pool.
func Status(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "status [-j]",
		Short: "Show the working directory, background processes and the last foreground exit status.",
	}
	jobs := cmd.Flags().Bool('j', "list the PIDs of background processes")

	return cmd.Run(s, args, func() int {
		w := s.Stdout
		cwd, err := s.Getwd()
		if err != nil {
			fmt.Fprintf(s.Stderr, "status: %v\n", err)
			return 1
		}

		fmt.Fprintf(w, "%s %s\n", s.Color.Sprintf(ColorBold, "CWD:"), cwd)
		fmt.Fprintf(w, "Pool has %d living processes.\n", s.Pool.Size())

		if status, ok := s.Pool.LastStatus(); ok {
			fmt.Fprintln(w, status)
		} else {
			fmt.Fprintln(w, "no foreground command has completed")
		}

		if *jobs {
			for _, pid := range s.Pool.PIDs() {
				fmt.Fprintf(w, "[%d] running\n", pid)
			}
		}
		return 0
	})
}

// Exit quits the shell.
func Exit(s *Shell, args []string) int {
	if s.KillBackgroundOnExit {
		if n := s.Pool.KillAll(syscall.SIGTERM); n > 0 {
			fmt.Fprintf(s.Stdout, "Terminated %d background processes.\n", n)
		}
	}
	s.Quit = true
	return 0
}

// Foreground enters foreground-only mode.
func Foreground(s *Shell, args []string) int {
	s.Pool.SetForegroundOnly(true)
	fmt.Fprintln(s.Stdout, s.Color.Sprintf(ColorBoldBlue, "Entering foreground-only mode (& is now ignored)"))
	return 0
}

// Background leaves foreground-only mode.
func Background(s *Shell, args []string) int {
	s.Pool.SetForegroundOnly(false)
	fmt.Fprintln(s.Stdout, s.Color.Sprintf(ColorBoldBlue, "Exiting foreground-only mode"))
	return 0
}

func Help(s *Shell, args []string) int {
	w := s.Stdout
	fmt.Fprintln(w, "smallsh, a small shell.")
	fmt.Fprintln(w, "Other commands are run as programs. End a command with & to run it in the")
	fmt.Fprintln(w, "background, use < and > to redirect input and output. $$ expands to the")
	fmt.Fprintln(w, "shell's PID.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Builtins:")

	var lines []string
	for _, name := range ListBuiltins() {
		lines = append(lines, fmt.Sprintf("  %-12s%s", name, AllBuiltins[name].Short))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))

	return 0
}

func init() {
	addBuiltin("cd", "change the working directory", Cd)
	addBuiltin("status", "show the working directory and process status", Status)
	addBuiltin("exit", "exit the shell", Exit)
	addBuiltin("foreground", "run every command in the foreground", Foreground)
	addBuiltin("background", "allow & to run commands in the background", Background)
	addBuiltin("help", "show this help", Help)
}
