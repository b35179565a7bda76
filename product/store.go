package product

import (
	"context"

	"github.com/xraph/provenance/identity"
)

// Store persists products with their history and transfer records.
//
// The product row is the commit point. Implementations without multi-row
// atomicity write the child record (history entry or transfer) first and
// the product row second, and only return child records whose Seq is
// covered by the product's HistoryCount or TransferCount. A child written
// for a Seq that was never committed is overwritten on the next attempt.
type Store interface {
	// CreateProduct inserts p together with its registration entry.
	CreateProduct(ctx context.Context, p *Product, first *HistoryEntry) error
	// AppendHistory stores e and then p, whose status and HistoryCount
	// already reflect e.
	AppendHistory(ctx context.Context, p *Product, e *HistoryEntry) error
	// TransferProduct stores t and then p, whose owner and TransferCount
	// already reflect t.
	TransferProduct(ctx context.Context, p *Product, t *Transfer) error
	GetProduct(ctx context.Context, productID uint64) (*Product, error)
	ListProducts(ctx context.Context, opts ListOpts) ([]*Product, error)
	ListHistory(ctx context.Context, productID uint64) ([]*HistoryEntry, error)
	ListTransfers(ctx context.Context, productID uint64) ([]*Transfer, error)
	CountProducts(ctx context.Context) (uint64, error)
}

// ListOpts filters ListProducts. Results are ordered by ProductID.
type ListOpts struct {
	Owner  identity.Identity
	Status *Status
	Limit  int
	Offset int
}
