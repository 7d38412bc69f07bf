package launch

import (
	"strconv"
)

const (
	BackgroundToken = "&"
	PIDToken        = "$$"
	InputMarker     = "<"
	OutputMarker    = ">"
)

// Plan is the result of reading the shell syntax out of a command's argument
// tokens.
type Plan struct {
	// Args holds the arguments to pass to the program.
	Args []string
	// Background is set if the command ended with &.
	Background bool
	// Input is the path to read standard input from, blank if not redirected.
	Input string
	// Output is the path to write standard output to, blank if not redirected.
	Output string
}

// ParsePlan strips the background token, substitutes pid for $$ and extracts
// the redirections from args. args is not modified.
func ParsePlan(args []string, pid int) Plan {
	var plan Plan

	if n := len(args); n > 0 && args[n-1] == BackgroundToken {
		args = args[:n-1]
		plan.Background = true
	}

	plan.Args = substitutePID(args, pid)
	plan.Input, plan.Args = extractRedirection(plan.Args, InputMarker)
	plan.Output, plan.Args = extractRedirection(plan.Args, OutputMarker)

	return plan
}

// substitutePID returns a copy of args with every token equal to $$ replaced
// by pid.
func substitutePID(args []string, pid int) []string {
	out := make([]string, len(args))
	pidStr := strconv.Itoa(pid)
	for i, arg := range args {
		if arg == PIDToken {
			out[i] = pidStr
		} else {
			out[i] = arg
		}
	}
	return out
}

// extractRedirection removes the last occurrence of marker and the path that
// follows it. A marker without a path is dropped and no path is returned.
func extractRedirection(args []string, marker string) (path string, rest []string) {
	idx := -1
	for i, arg := range args {
		if arg == marker {
			idx = i
		}
	}

	switch {
	case idx < 0:
		return "", args
	case idx == len(args)-1:
		return "", args[:idx]
	default:
		path = args[idx+1]
		rest = append(append([]string{}, args[:idx]...), args[idx+2:]...)
		return path, rest
	}
}
