// Package store defines the persistence contract of a provenance ledger.
package store

import (
	"context"

	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/product"
)

// Store is the unified storage interface for all ledger records.
// It satisfies both participant.Store and product.Store.
type Store interface {
	// Participant methods
	GetParticipant(ctx context.Context, who identity.Identity) (*participant.Participant, error)
	SaveParticipant(ctx context.Context, p *participant.Participant) error
	ListParticipants(ctx context.Context, opts participant.ListOpts) ([]*participant.Participant, error)

	// Product methods
	CreateProduct(ctx context.Context, p *product.Product, first *product.HistoryEntry) error
	AppendHistory(ctx context.Context, p *product.Product, e *product.HistoryEntry) error
	TransferProduct(ctx context.Context, p *product.Product, t *product.Transfer) error
	GetProduct(ctx context.Context, productID uint64) (*product.Product, error)
	ListProducts(ctx context.Context, opts product.ListOpts) ([]*product.Product, error)
	ListHistory(ctx context.Context, productID uint64) ([]*product.HistoryEntry, error)
	ListTransfers(ctx context.Context, productID uint64) ([]*product.Transfer, error)
	CountProducts(ctx context.Context) (uint64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ participant.Store = Store(nil)
	_ product.Store     = Store(nil)
)
