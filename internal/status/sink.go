// Package status holds the user-visible outcome stream shared by every
// console operation.
//
// A Sink has one append-only log plus two single-slot fields: Activity,
// which carries optimistic progress text such as "Scanning packages...",
// and UpdateMessage, which carries the result of the last update check.
// The slots are overwritten; the log only ever grows.
package status

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// EventKind identifies what changed in a Sink.
type EventKind int

const (
	LineAppended EventKind = iota
	ActivityChanged
	UpdateMessageChanged
)

// Event describes one change to a Sink.
type Event struct {
	Kind EventKind
	Text string
}

// Sink is the process-wide outcome log. It is safe for concurrent use;
// each Append lands as one whole line.
type Sink struct {
	mu          sync.Mutex
	lines       []string
	activity    string
	updateMsg   string
	subscribers []func(Event)
	logger      *zap.Logger
}

// New creates an empty Sink. A nil logger disables diagnostics mirroring.
func New(logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{logger: logger}
}

// Subscribe registers fn to be called after every change. Callbacks run
// outside the sink's lock, in the goroutine that made the change.
func (s *Sink) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Append adds line to the end of the log.
func (s *Sink) Append(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	subs := s.subscribers
	s.mu.Unlock()

	s.logger.Info("status", zap.String("line", line))
	notify(subs, Event{Kind: LineAppended, Text: line})
}

// Lines returns a copy of the log.
func (s *Sink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len returns the number of log lines.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Text returns the log joined with newlines.
func (s *Sink) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.lines, "\n")
}

// SetActivity overwrites the activity slot.
func (s *Sink) SetActivity(text string) {
	s.mu.Lock()
	s.activity = text
	subs := s.subscribers
	s.mu.Unlock()

	s.logger.Debug("activity", zap.String("text", text))
	notify(subs, Event{Kind: ActivityChanged, Text: text})
}

// Activity returns the current activity text.
func (s *Sink) Activity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activity
}

// SetUpdateMessage overwrites the update message slot.
func (s *Sink) SetUpdateMessage(text string) {
	s.mu.Lock()
	s.updateMsg = text
	subs := s.subscribers
	s.mu.Unlock()

	s.logger.Debug("update message", zap.String("text", text))
	notify(subs, Event{Kind: UpdateMessageChanged, Text: text})
}

// UpdateMessage returns the last update check message.
func (s *Sink) UpdateMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateMsg
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
