package audit

import (
	"context"
	"sync"
)

// Publisher emits audit events. Implementations are best-effort from the
// caller's point of view: services log a failed Emit and continue, so a
// broken audit pipeline never rolls back a status transition.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// NopPublisher discards events. Used when no audit sink is configured.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, Event) error { return nil }

// MemoryPublisher accumulates events in memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Emit(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything emitted so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event{}, p.events...)
}
