package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"schoolchain/internal/platform/middleware"
)

// Publisher turns domain actions into audit events and hands them to a
// sink. Emission is best effort: failures are logged, never surfaced to
// the caller.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
	clock  func() time.Time

	inbox chan Event
	done  chan struct{}
	once  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer makes Publish enqueue onto a buffered channel drained
// by a background goroutine. Events are dropped when the buffer is full.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(p *Publisher) {
		p.clock = clock
	}
}

func NewPublisher(sink Sink, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		sink:   sink,
		logger: logger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Publish records an action with its fields. Actor and request ID are
// taken from the request context when present.
func (p *Publisher) Publish(ctx context.Context, action string, fields map[string]any) {
	event := Event{
		Timestamp: p.clock().UTC(),
		Action:    action,
		Actor:     middleware.GetUserName(ctx),
		RequestID: middleware.GetRequestID(ctx),
		Fields:    fields,
	}

	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
			p.logger.Warn("audit buffer full, dropping event", "action", action)
		}
		return
	}

	p.append(ctx, event)
}

func (p *Publisher) append(ctx context.Context, event Event) {
	if err := p.sink.Append(ctx, event); err != nil {
		p.logger.Error("failed to record audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		p.append(context.Background(), event)
	}
}

// Close flushes any buffered events. Safe to call on a sync publisher.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.once.Do(func() {
		close(p.inbox)
		<-p.done
	})
}
