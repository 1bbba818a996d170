package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Sink receives finished events. Implementations must be safe for
// concurrent use.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// MemorySink collects events in memory. Used in tests and as the
// fallback when no brokers are configured.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything appended so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// LogSink writes events to the structured log. Used when no brokers are
// configured so local runs still show an audit trail.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(_ context.Context, event Event) error {
	s.logger.Info("audit event",
		"action", event.Action,
		"actor", event.Actor,
		"request_id", event.RequestID,
		"fields", event.Fields,
	)
	return nil
}

// ByAction returns the recorded events with the given action.
func (s *MemorySink) ByAction(action string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
