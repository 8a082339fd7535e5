// Package messaging publishes story domain events.
package messaging

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"silkmaker-backend/internal/domain"
)

// Publisher delivers domain events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}

// LogPublisher writes events to the log. It is the default when no event
// bus is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher that logs each event at info level.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("events")}
}

// Publish logs the events.
func (p *LogPublisher) Publish(_ context.Context, events ...domain.Event) error {
	for _, e := range events {
		p.logger.Info("domain event",
			zap.String("event_id", e.ID),
			zap.String("event_type", string(e.Type)),
			zap.Int64("project_id", e.ProjectID),
			zap.String("entity_id", e.EntityID),
		)
	}
	return nil
}

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

// NewMemoryPublisher creates an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish records the events, or fails with the configured error.
func (p *MemoryPublisher) Publish(_ context.Context, events ...domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

// FailWith makes every later Publish return err. Pass nil to recover.
func (p *MemoryPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Types returns the types of the published events in order.
func (p *MemoryPublisher) Types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
