// Package launch turns a command and its argument tokens into a process pool
// spawn, applying backgrounding, $$ substitution and < > redirection.
package launch

import (
	"io"
		"log"
	"os"

	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/spf13/afero"
)

// Spawner starts processes, it's implemented by *pool.Pool.
type Spawner interface {
	Spawn(program string, args []string, background bool, stdin io.ReadCloser, stdout io.WriteCloser) error
	ForegroundOnly() bool
}

// Launcher resolves shell syntax in argument lists and hands the result to
// a Spawner.
type Launcher struct {
	Pool Spawner
	// Fs is used to open redirection targets.
	Fs afero.Fs
	// Getpid returns the value substituted for $$.
	Getpid func() int
	// Recorder receives redirection failures.
	Recorder logger.EventRecorder
	Log      *log.Logger
}

// New creates a launcher that opens redirections on the host filesystem.
func New(pool Spawner) *Launcher {
	return &Launcher{
		Pool:     pool,
		Fs:       afero.NewOsFs(),
		Getpid:   os.Getpid,
		Recorder: &logger.NopEventRecorder{},
		Log:      log.New(io.Discard, "", 0),
	}
}

// Launch runs name with the given argument tokens.
//
// Redirection targets that can't be opened are ignored and the command runs
// with the default stream instead. Only spawn failures are returned.
// background reports whether the command was left running in the background.
func (l *Launcher) Launch(name string, args []string) (background bool, err error) {
	plan := ParsePlan(args, l.Getpid())

	var stdin io.ReadCloser
	if plan.Input != "" {
		if fd, err := l.Fs.Open(plan.Input); err != nil {
			l.redirectFailed(name, err)
		} else {
			stdin = fd
		}
	}

	var stdout io.WriteCloser
	if plan.Output != "" {
		if fd, err := l.Fs.Create(plan.Output); err != nil {
			l.redirectFailed(name, err)
		} else {
			stdout = fd
		}
	}

	background = plan.Background && !l.Pool.ForegroundOnly()
	if err := l.Pool.Spawn(name, plan.Args, background, stdin, stdout); err != nil {
		return false, err
	}
	return background, nil
}

func (l *Launcher) redirectFailed(name string, err error) {
	l.Log.Printf("%s: ignoring redirection: %v", name, err)
	if recErr := l.Recorder.Record(&logger.Event{
		Kind:    logger.KindRedirect,
		Program: name,
		Error:   err.Error(),
	}); recErr != nil {
		l.Log.Printf("recording %s event: %v", logger.KindRedirect, recErr)
	}
}
