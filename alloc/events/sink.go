package events

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Sink receives progress events. Implementations may fail; the Emitter
// treats every failure as best-effort and never propagates it into the
// allocation run.
type Sink interface {
	Push(ev Event) error
}

// Emitter stamps and fans out events to its sinks. A nil *Emitter is valid
// and drops everything, so pipeline code never needs nil checks.
type Emitter struct {
	runID string
	sinks []Sink
	now   func() time.Time
}

// NewEmitter creates an Emitter for one run. Sinks may be nil or empty.
func NewEmitter(runID string, sinks ...Sink) *Emitter {
	return &Emitter{runID: runID, sinks: sinks, now: time.Now}
}

// Emit builds the event and pushes it to every sink. Sink errors are logged
// at warn level and dropped: observability must never jeopardize the run.
func (e *Emitter) Emit(t Type, data map[string]any) {
	if e == nil {
		return
	}
	ev := Event{Type: t, Timestamp: e.now(), RunID: e.runID, Data: data}
	for _, s := range e.sinks {
		if err := s.Push(ev); err != nil {
			logrus.Warnf("event sink dropped %s: %v", t, err)
		}
	}
}

// RunID returns the run identifier stamped on every event.
func (e *Emitter) RunID() string {
	if e == nil {
		return ""
	}
	return e.runID
}

// MemorySink retains the most recent events in a bounded ring. Used by tests
// and by the CLI to include the event log in the run output.
type MemorySink struct {
	max    int
	events []Event
}

// NewMemorySink creates a MemorySink holding at most max events
// (1000 when max <= 0).
func NewMemorySink(max int) *MemorySink {
	if max <= 0 {
		max = 1000
	}
	return &MemorySink{max: max}
}

// Push appends the event, evicting the oldest past capacity. Never fails.
func (m *MemorySink) Push(ev Event) error {
	m.events = append(m.events, ev)
	if len(m.events) > m.max {
		m.events = m.events[len(m.events)-m.max:]
	}
	return nil
}

// Events returns the retained events, oldest first.
func (m *MemorySink) Events() []Event {
	return m.events
}

// ByType returns the retained events of the given type, oldest first.
func (m *MemorySink) ByType(t Type) []Event {
	var out []Event
	for _, ev := range m.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// LogSink writes every event to the process log at debug level.
type LogSink struct{}

// Push logs the event. Never fails.
func (LogSink) Push(ev Event) error {
	logrus.Debugf(">> %s %v", ev.Type, ev.Data)
	return nil
}
