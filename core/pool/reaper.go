package pool

import (
	"time"

	"github.com/josephlewis42/smallsh/core/logger"
)

type reaped struct {
	h      *handle
	status ExitStatus
	err    error
}

// reaper polls the background set until Close is called. Passes are paced by
// the token bucket so the loop never spins.
func (p *Pool) reaper() {
	defer close(p.reaperDone)

	for {
		p.reapOnce()

		select {
		case <-p.quit:
			return
		case <-time.After(p.bucket.Take(1)):
		}
	}
}

// reapOnce removes every exited child from the background set and reports
// it. It returns the number of children removed.
func (p *Pool) reapOnce() int {
	var exited []reaped

	p.mu.Lock()
	for h := range p.background {
		status, ok, err := h.poll()
		if !ok {
			continue
		}
		delete(p.background, h)
		exited = append(exited, reaped{h: h, status: status, err: err})
	}
	p.mu.Unlock()

	for _, r := range exited {
		if r.err != nil {
			// The child was collected by Wait, so it can't be polled again.
			p.notify(noticeWarning, "Background process %d failed to complete: %v", r.h.pid, r.err)
			p.record(&logger.Event{
				Kind:       logger.KindWaitError,
				PID:        r.h.pid,
				Program:    r.h.program,
				Background: true,
				Error:      r.err.Error(),
			})
			continue
		}

		if r.status.Signaled() {
			p.notify(noticeExited, "Background process %d terminated by signal %d", r.h.pid, int(r.status.Signal))
		} else {
			p.notify(noticeExited, "Background process %d exited with code %d", r.h.pid, r.status.Code)
		}
		p.recordExit(r.h, r.status, true)
	}

	return len(exited)
}
