package identity

import (
	"context"
	"sync"
)

// Static resolves credentials from a fixed table. Intended for development
// and tests where no real authentication backend is wired.
type Static struct {
	mu      sync.RWMutex
	entries map[string]Identity
}

// NewStatic creates a Static source from credential → identity pairs.
func NewStatic(entries map[string]Identity) *Static {
	s := &Static{entries: make(map[string]Identity, len(entries))}
	for k, v := range entries {
		s.entries[k] = v
	}
	return s
}

// Set adds or replaces a credential.
func (s *Static) Set(credential string, who Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[credential] = who
}

// Identify implements Source.
func (s *Static) Identify(_ context.Context, credential string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	who, ok := s.entries[credential]
	if !ok || who.IsZero() {
		return "", ErrUnknownCredential
	}
	return who, nil
}
