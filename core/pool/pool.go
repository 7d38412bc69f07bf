// Package pool spawns child processes for the shell, tracks the ones running
// in the background and reaps them without blocking the prompt.
package pool

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/juju/ratelimit"
)

const DefaultReapInterval = 50 * time.Millisecond

// ErrPoolClosed is returned when spawning on a pool that has been closed.
var ErrPoolClosed = errors.New("process pool closed")

type noticeKind int

const (
	noticeSpawned noticeKind = iota
	noticeExited
	noticeWarning
)

var noticeAttributes = map[noticeKind][]color.Attribute{
	noticeSpawned: {color.FgCyan},
	noticeExited:  {color.FgGreen},
	noticeWarning: {color.FgYellow, color.Bold},
}

// Option configures a Pool.
type Option func(*Pool)

// WithStdout sets where children write when their output isn't redirected.
func WithStdout(w io.Writer) Option {
	return func(p *Pool) {
		p.stdout = w
	}
}

// WithStderr sets the standard error of every child.
func WithStderr(w io.Writer) Option {
	return func(p *Pool) {
		p.stderr = w
	}
}

// WithNotices sets where spawn and reap notices are printed.
func WithNotices(w io.Writer) Option {
	return func(p *Pool) {
		p.notices = w
	}
}

// WithColor enables colorized notices.
func WithColor(enabled bool) Option {
	return func(p *Pool) {
		p.color = enabled
	}
}

// WithReapInterval sets the minimum time between two reaper passes.
func WithReapInterval(d time.Duration) Option {
	return func(p *Pool) {
		p.reapInterval = d
	}
}

// WithRecorder sets the event recorder spawns and exits are logged to.
func WithRecorder(r logger.EventRecorder) Option {
	return func(p *Pool) {
		p.recorder = r
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Pool) {
		p.log = l
	}
}

// WithForegroundOnly sets the initial foreground-only mode.
func WithForegroundOnly(fgOnly bool) Option {
	return func(p *Pool) {
		p.foregroundOnly.Store(fgOnly)
	}
}

// Pool owns the set of background children and the last foreground exit
// status. A single reaper goroutine runs from New until Close.
type Pool struct {
	// mu guards background.
	mu         sync.Mutex
	background map[*handle]struct{}

	// lastMu guards last.
	lastMu sync.Mutex
	last   *ExitStatus

	foregroundOnly atomic.Bool
	closed         atomic.Bool

	quit       chan struct{}
	reaperDone chan struct{}
	closeOnce  sync.Once

	reapInterval time.Duration
	bucket       *ratelimit.Bucket

	stdout   io.Writer
	stderr   io.Writer
	color    bool
	colors   map[noticeKind]*color.Color
	recorder logger.EventRecorder
	log      *log.Logger

	// noticeMu serializes writes to notices between the reaper and callers.
	noticeMu sync.Mutex
	notices  io.Writer
}

// New creates a pool and starts its reaper.
func New(opts ...Option) *Pool {
	p := &Pool{
		background:   make(map[*handle]struct{}),
		quit:         make(chan struct{}),
		reaperDone:   make(chan struct{}),
		reapInterval: DefaultReapInterval,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		notices:      os.Stdout,
		recorder:     &logger.NopEventRecorder{},
		log:          log.New(io.Discard, "", 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.color {
		p.colors = make(map[noticeKind]*color.Color)
		for kind, attrs := range noticeAttributes {
			c := color.New(attrs...)
			c.EnableColor()
			p.colors[kind] = c
		}
	}

	if p.reapInterval <= 0 {
		p.reapInterval = DefaultReapInterval
	}
	p.bucket = ratelimit.NewBucket(p.reapInterval, 1)
	go p.reaper()

	return p
}

// Spawn starts program with args.
//
// If stdin is nil the child reads from the null device, if stdout is nil it
// inherits the pool's output. Ownership of stdin and stdout passes to the
// pool, they are closed once the child exits.
//
// Background children are tracked and reaped asynchronously and Spawn returns
// as soon as they start. Otherwise, or when the pool is foreground-only,
// Spawn waits for the child and records its exit status.
func (p *Pool) Spawn(program string, args []string, background bool, stdin io.ReadCloser, stdout io.WriteCloser) error {
	var closers []io.Closer
	cmd := exec.Command(program, args...)
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr
	if stdin != nil {
		cmd.Stdin = stdin
		closers = append(closers, stdin)
	}
	if stdout != nil {
		cmd.Stdout = stdout
		closers = append(closers, stdout)
	}

	if p.closed.Load() {
		closeAll(closers)
		return ErrPoolClosed
	}

	background = background && !p.ForegroundOnly()

	h, err := startHandle(program, cmd, closers)
	if err != nil {
		closeAll(closers)
		p.record(&logger.Event{
			Kind:    logger.KindSpawnError,
			Program: program,
			Args:    args,
			Error:   err.Error(),
		})
		return fmt.Errorf("spawn %s: %w", program, err)
	}

	p.record(&logger.Event{
		Kind:       logger.KindSpawn,
		PID:        h.pid,
		Program:    program,
		Args:       args,
		Background: background,
	})

	if background {
		p.notify(noticeSpawned, "Background process spawned with id: %d", h.pid)

		p.mu.Lock()
		p.background[h] = struct{}{}
		p.mu.Unlock()
		return nil
	}

	status, err := h.wait()
	if err != nil {
		p.notify(noticeWarning, "Process failed to complete: %v", err)
		p.record(&logger.Event{
			Kind:    logger.KindWaitError,
			PID:     h.pid,
			Program: program,
			Error:   err.Error(),
		})
		return nil
	}

	p.lastMu.Lock()
	p.last = &status
	p.lastMu.Unlock()

	p.recordExit(h, status, false)
	return nil
}

// Size returns the number of tracked background children.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.background)
}

// PIDs returns the sorted process IDs of tracked background children.
func (p *Pool) PIDs() []int {
	p.mu.Lock()
	pids := make([]int, 0, len(p.background))
	for h := range p.background {
		pids = append(pids, h.pid)
	}
	p.mu.Unlock()

	sort.Ints(pids)
	return pids
}

// LastExitCode returns the exit code of the most recent foreground child.
// ok is false if no foreground child has exited yet or the last one was
// killed by a signal.
func (p *Pool) LastExitCode() (code int, ok bool) {
	status, ok := p.LastStatus()
	if !ok || status.Signaled() {
		return 0, false
	}
	return status.Code, true
}

// LastStatus returns the full exit status of the most recent foreground
// child.
func (p *Pool) LastStatus() (ExitStatus, bool) {
	p.lastMu.Lock()
	defer p.lastMu.Unlock()

	if p.last == nil {
		return ExitStatus{}, false
	}
	return *p.last, true
}

// ForegroundOnly reports whether background requests are being ignored.
func (p *Pool) ForegroundOnly() bool {
	return p.foregroundOnly.Load()
}

// SetForegroundOnly toggles foreground-only mode.
func (p *Pool) SetForegroundOnly(fgOnly bool) {
	p.foregroundOnly.Store(fgOnly)
}

// KillAll sends sig to every tracked background child and returns how many
// were signaled. The children stay tracked until the reaper sees them exit.
func (p *Pool) KillAll(sig os.Signal) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	signaled := 0
	for h := range p.background {
		if err := h.cmd.Process.Signal(sig); err != nil {
			p.log.Printf("signal %d: %v", h.pid, err)
			continue
		}
		signaled++
	}
	return signaled
}

// Close stops the reaper and waits for it to exit. Children still running in
// the background are left alone. Close is safe to call more than once.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.quit)
	})
	<-p.reaperDone
	return nil
}

func (p *Pool) notify(kind noticeKind, format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	if c, ok := p.colors[kind]; ok {
		msg = c.Sprint(msg)
	}

	p.noticeMu.Lock()
	defer p.noticeMu.Unlock()
	fmt.Fprintln(p.notices, msg)
}

func (p *Pool) record(e *logger.Event) {
	if err := p.recorder.Record(e); err != nil {
		p.log.Printf("recording %s event: %v", e.Kind, err)
	}
}

func (p *Pool) recordExit(h *handle, status ExitStatus, background bool) {
	e := &logger.Event{
		Kind:       logger.KindExit,
		PID:        h.pid,
		Program:    h.program,
		Background: background,
		ExitCode:   status.Code,
	}
	if status.Signaled() {
		e.Signal = status.Signal.String()
	}
	p.record(e)
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}
