// Package memory provides an in-process store.Store, intended for tests,
// development, and single-node deployments that do not need durability.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store keeps every record in maps guarded by a single RWMutex. Records are
// copied on the way in and on the way out.
type Store struct {
	mu     sync.RWMutex
	closed bool

	participants map[identity.Identity]participant.Participant
	products     map[uint64]product.Product
	history      map[uint64][]product.HistoryEntry
	transfers    map[uint64][]product.Transfer
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		participants: make(map[identity.Identity]participant.Participant),
		products:     make(map[uint64]product.Product),
		history:      make(map[uint64][]product.HistoryEntry),
		transfers:    make(map[uint64][]product.Transfer),
	}
}

// Participant Store implementation
func (s *Store) GetParticipant(_ context.Context, who identity.Identity) (*participant.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, provenance.ErrStoreClosed
	}
	p, ok := s.participants[who]
	if !ok {
		return nil, provenance.ErrParticipantNotFound
	}
	return &p, nil
}

func (s *Store) SaveParticipant(_ context.Context, p *participant.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return provenance.ErrStoreClosed
	}
	s.participants[p.Identity] = *p
	return nil
}

func (s *Store) ListParticipants(_ context.Context, opts participant.ListOpts) ([]*participant.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, provenance.ErrStoreClosed
	}

	result := make([]*participant.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		if opts.AuthorizedOnly && !p.Authorized {
			continue
		}
		cp := p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Identity < result[j].Identity
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Product Store implementation
func (s *Store) CreateProduct(_ context.Context, p *product.Product, first *product.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return provenance.ErrStoreClosed
	}
	if _, exists := s.products[p.ProductID]; exists {
		return provenance.ErrDuplicateProduct
	}
	s.history[p.ProductID] = []product.HistoryEntry{*first}
	s.products[p.ProductID] = *p
	return nil
}

func (s *Store) AppendHistory(_ context.Context, p *product.Product, e *product.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return provenance.ErrStoreClosed
	}
	if _, exists := s.products[p.ProductID]; !exists {
		return provenance.ErrProductNotFound
	}
	h := s.history[p.ProductID]
	if e.Seq-1 < len(h) {
		h = h[:e.Seq-1]
	}
	s.history[p.ProductID] = append(h, *e)
	s.products[p.ProductID] = *p
	return nil
}

func (s *Store) TransferProduct(_ context.Context, p *product.Product, t *product.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return provenance.ErrStoreClosed
	}
	if _, exists := s.products[p.ProductID]; !exists {
		return provenance.ErrProductNotFound
	}
	tr := s.transfers[p.ProductID]
	if t.Seq-1 < len(tr) {
		tr = tr[:t.Seq-1]
	}
	s.transfers[p.ProductID] = append(tr, *t)
	s.products[p.ProductID] = *p
	return nil
}

func (s *Store) GetProduct(_ context.Context, productID uint64) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, provenance.ErrStoreClosed
	}
	p, ok := s.products[productID]
	if !ok {
		return nil, provenance.ErrProductNotFound
	}
	return &p, nil
}

func (s *Store) ListProducts(_ context.Context, opts product.ListOpts) ([]*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, provenance.ErrStoreClosed
	}

	result := make([]*product.Product, 0)
	for _, p := range s.products {
		if opts.Owner != "" && p.CurrentOwner != opts.Owner {
			continue
		}
		if opts.Status != nil && p.CurrentStatus != *opts.Status {
			continue
		}
		cp := p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ProductID < result[j].ProductID
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) ListHistory(_ context.Context, productID uint64) ([]*product.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, provenance.ErrStoreClosed
	}
	p, ok := s.products[productID]
	if !ok {
		return nil, provenance.ErrProductNotFound
	}

	h := s.history[productID]
	n := min(p.HistoryCount, len(h))
	result := make([]*product.HistoryEntry, n)
	for i := 0; i < n; i++ {
		e := h[i]
		result[i] = &e
	}
	return result, nil
}

func (s *Store) ListTransfers(_ context.Context, productID uint64) ([]*product.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, provenance.ErrStoreClosed
	}
	p, ok := s.products[productID]
	if !ok {
		return nil, provenance.ErrProductNotFound
	}

	tr := s.transfers[productID]
	n := min(p.TransferCount, len(tr))
	result := make([]*product.Transfer, n)
	for i := 0; i < n; i++ {
		t := tr[i]
		result[i] = &t
	}
	return result, nil
}

func (s *Store) CountProducts(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, provenance.ErrStoreClosed
	}
	return uint64(len(s.products)), nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return provenance.ErrStoreClosed
	}
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return provenance.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
