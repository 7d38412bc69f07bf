package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventKind identifies the type of a logged event.
type EventKind string

const (
	KindSpawn      EventKind = "spawn"
	KindSpawnError EventKind = "spawn_error"
	KindExit       EventKind = "exit"
	KindWaitError  EventKind = "wait_error"
	KindRedirect   EventKind = "redirect_error"
)

// Event is a single entry in the event log.
type Event struct {
	Kind       EventKind `json:"event"`
	SessionID  string    `json:"session_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	PID        int       `json:"pid,omitempty"`
	Program    string    `json:"program,omitempty"`
	Args       []string  `json:"args,omitempty"`
	Background bool      `json:"background,omitempty"`
	ExitCode   int       `json:"exit_code,omitempty"`
	Signal     string    `json:"signal,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func (e *Event) toStruct() (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"event":     string(e.Kind),
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if e.SessionID != "" {
		fields["session_id"] = e.SessionID
	}
	if e.PID != 0 {
		fields["pid"] = e.PID
	}
	if e.Program != "" {
		fields["program"] = e.Program
	}
	if len(e.Args) > 0 {
		args := make([]interface{}, len(e.Args))
		for i, a := range e.Args {
			args[i] = a
		}
		fields["args"] = args
	}
	if e.Background {
		fields["background"] = true
	}
	if e.Kind == KindExit && e.Signal == "" {
		fields["exit_code"] = e.ExitCode
	}
	if e.Signal != "" {
		fields["signal"] = e.Signal
	}
	if e.Error != "" {
		fields["error"] = e.Error
	}

	return structpb.NewStruct(fields)
}

func eventFromStruct(s *structpb.Struct) *Event {
	f := s.GetFields()
	out := &Event{
		Kind:       EventKind(f["event"].GetStringValue()),
		SessionID:  f["session_id"].GetStringValue(),
		PID:        int(f["pid"].GetNumberValue()),
		Program:    f["program"].GetStringValue(),
		Background: f["background"].GetBoolValue(),
		ExitCode:   int(f["exit_code"].GetNumberValue()),
		Signal:     f["signal"].GetStringValue(),
		Error:      f["error"].GetStringValue(),
	}
	if ts, err := time.Parse(time.RFC3339Nano, f["timestamp"].GetStringValue()); err == nil {
		out.Timestamp = ts
	}
	for _, v := range f["args"].GetListValue().GetValues() {
		out.Args = append(out.Args, v.GetStringValue())
	}
	return out
}

// EventRecorder stores events in an external datastore.
type EventRecorder interface {
	Record(event *Event) error
}

// NopEventRecorder discards all events.
type NopEventRecorder struct{}

var _ EventRecorder = (*NopEventRecorder)(nil)

func (*NopEventRecorder) Record(*Event) error {
	return nil
}

// Logger captures process events for later reporting.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewJsonLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format.
func NewJsonLinesLogRecorder(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

func (l *Logger) record(sessionID string, event *Event) error {
	event.SessionID = sessionID
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}

	s, err := event.toStruct()
	if err != nil {
		return err
	}
	entry, err := protojson.Marshal(s)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = fmt.Fprintln(l.w, string(entry))
	return err
}

// NewSession creates a logger with attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: uuid.New().String()}
}

// SessionLogger logs messages with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

var _ EventRecorder = (*SessionLogger)(nil)

// SessionID returns the ID attached to every event.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

func (l *SessionLogger) Record(event *Event) error {
	return l.record(l.sessionID, event)
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(e *Event)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var rawEntry json.RawMessage
		if err := decoder.Decode(&rawEntry); err != nil {
			return err
		}

		var entry structpb.Struct
		if err := protojson.Unmarshal(rawEntry, &entry); err != nil {
			return err
		}

		handler(eventFromStruct(&entry))
	}
	return nil
}
