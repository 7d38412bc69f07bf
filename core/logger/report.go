package logger

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	Sessions       int        `json:"sessions"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	Spawn      SpawnReport      `json:"spawn_report"`
	Exit       ExitReport       `json:"exit_report"`
	SpawnError SpawnErrorReport `json:"spawn_error_report"`
	WaitErrors int              `json:"wait_errors"`
	Redirects  StrCounter       `json:"redirect_errors"`

	seenSessions map[string]bool
	// pid -> spawn time for background processes still waiting on an exit.
	pending map[string]time.Time
}

func (r *Report) Update(e *Event) {
	r.LogEntries++

	if r.seenSessions == nil {
		r.seenSessions = make(map[string]bool)
		r.pending = make(map[string]time.Time)
	}
	if e.SessionID != "" && !r.seenSessions[e.SessionID] {
		r.seenSessions[e.SessionID] = true
		r.Sessions++
	}

	key := e.SessionID + "/" + strconv.Itoa(e.PID)

	switch e.Kind {
	case KindSpawn:
		r.Spawn.update(e)
		if e.Background {
			r.pending[key] = e.Timestamp
		}
	case KindExit:
		r.Exit.update(e)
		if started, ok := r.pending[key]; ok && e.Background {
			r.Exit.BackgroundRuntime.add(e.Timestamp.Sub(started))
			delete(r.pending, key)
		}
	case KindSpawnError:
		r.SpawnError.update(e)
	case KindWaitError:
		r.WaitErrors++
	case KindRedirect:
		r.Redirects.Increment(e.Error)
	default:
		r.InvalidEntries.Increment(string(e.Kind))
	}
}

// Unreaped returns the number of background processes that were spawned but
// never logged an exit.
func (r *Report) Unreaped() int {
	return len(r.pending)
}

type SpawnReport struct {
	// Names of spawned programs and their counts.
	Programs   StrCounter `json:"programs"`
	Foreground int        `json:"foreground"`
	Background int        `json:"background"`
}

func (r *SpawnReport) update(e *Event) {
	r.Programs.Increment(e.Program)
	if e.Background {
		r.Background++
	} else {
		r.Foreground++
	}
}

type ExitReport struct {
	ExitCodes         StrCounter     `json:"exit_codes"`
	Signals           StrCounter     `json:"signals"`
	BackgroundRuntime DurationReport `json:"background_runtime"`
}

func (r *ExitReport) update(e *Event) {
	if e.Signal != "" {
		r.Signals.Increment(e.Signal)
		return
	}
	r.ExitCodes.Increment(strconv.Itoa(e.ExitCode))
}

type SpawnErrorReport struct {
	Errors *PathCounter `json:"errors"`
}

func (r *SpawnErrorReport) update(e *Event) {
	if r.Errors == nil {
		r.Errors = NewPathCounter("program", "error")
	}
	r.Errors.Increment(e.Program, e.Error)
}

// DurationReport summarizes a set of durations.
type DurationReport struct {
	Count int           `json:"count"`
	Min   time.Duration `json:"-"`
	Max   time.Duration `json:"-"`
	total time.Duration
}

func (d *DurationReport) add(dur time.Duration) {
	if d.Count == 0 || dur < d.Min {
		d.Min = dur
	}
	if dur > d.Max {
		d.Max = dur
	}
	d.Count++
	d.total += dur
}

// Mean returns the average duration.
func (d *DurationReport) Mean() time.Duration {
	if d.Count == 0 {
		return 0
	}
	return d.total / time.Duration(d.Count)
}

// MarshalJSON implemnts custom JSON marshaler.
func (d DurationReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"count": d.Count,
		"min":   d.Min.String(),
		"max":   d.Max.String(),
		"mean":  d.Mean().String(),
	})
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for the key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of strings seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Get returns the count for the given path.
func (ctr *PathCounter) Get(path ...string) int {
	return ctr.internal[toKey(path...)]
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
