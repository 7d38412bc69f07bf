package pool

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
)

// ExitStatus describes how a child process finished.
type ExitStatus struct {
	// Code is the exit code, or -1 if the process was killed by a signal.
	Code int
	// Signal is the signal that terminated the process, zero if it exited.
	Signal syscall.Signal
}

// Signaled reports whether the process was terminated by a signal.
func (e ExitStatus) Signaled() bool {
	return e.Signal != 0
}

func (e ExitStatus) String() string {
	if e.Signaled() {
		return fmt.Sprintf("terminated by signal %d", int(e.Signal))
	}
	return fmt.Sprintf("exit value %d", e.Code)
}

func exitStatusFromError(err error) (ExitStatus, error) {
	if err == nil {
		return ExitStatus{Code: 0}, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return ExitStatus{Code: -1}, err
	}

	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Code: -1, Signal: ws.Signal()}, nil
	}
	return ExitStatus{Code: exitErr.ExitCode()}, nil
}

// handle is a single spawned child. Its state moves from running to exited
// exactly once, when the waiter goroutine closes done.
type handle struct {
	cmd     *exec.Cmd
	pid     int
	program string

	// closers are released after the child exits.
	closers []io.Closer

	done chan struct{}
	// status and err are written before done is closed and are read-only
	// afterwards.
	status ExitStatus
	err    error
}

func startHandle(program string, cmd *exec.Cmd, closers []io.Closer) (*handle, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &handle{
		cmd:     cmd,
		pid:     cmd.Process.Pid,
		program: program,
		closers: closers,
		done:    make(chan struct{}),
	}
	go h.waitLoop()
	return h, nil
}

func (h *handle) waitLoop() {
	err := h.cmd.Wait()
	h.status, h.err = exitStatusFromError(err)

	for _, c := range h.closers {
		_ = c.Close()
	}
	close(h.done)
}

// poll is the non-blocking status check. ok is false while the child is
// still running.
func (h *handle) poll() (status ExitStatus, ok bool, err error) {
	select {
	case <-h.done:
		return h.status, true, h.err
	default:
		return ExitStatus{}, false, nil
	}
}

// wait blocks until the child exits.
func (h *handle) wait() (ExitStatus, error) {
	<-h.done
	return h.status, h.err
}
