package event

import (
	"context"
	"sync"
)

// Sink receives events after the mutation they describe has been committed.
type Sink interface {
	Publish(ctx context.Context, e *Event) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, e *Event) error

// Publish implements Sink.
func (f SinkFunc) Publish(ctx context.Context, e *Event) error {
	return f(ctx, e)
}

// MemorySink keeps events in memory (development/testing use).
type MemorySink struct {
	mu     sync.Mutex
	events []*Event
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Publish appends e.
func (s *MemorySink) Publish(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Events returns a copy of all published events in publish order.
func (s *MemorySink) Events() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

// OfType returns the published events of type t in publish order.
func (s *MemorySink) OfType(t Type) []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Event
	for _, e := range s.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of published events.
func (s *MemorySink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Reset drops all stored events.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
