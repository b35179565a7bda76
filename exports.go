package provenance

import (
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/types"
)

// Re-export common types for convenience so users don't have to import
// the leaf packages for everyday calls.

// Identity is re-exported from the identity package.
type Identity = identity.Identity

// Status is re-exported from the product package.
type Status = product.Status

// Stages is re-exported from the product package.
type Stages = product.Stages

// Entity is re-exported from types package.
type Entity = types.Entity

// Default stage ordinals.
const (
	Manufactured = product.Manufactured
	InTransit    = product.InTransit
	Delivered    = product.Delivered
)

var (
	// DefaultStages is the Manufactured/InTransit/Delivered enumeration.
	DefaultStages = product.DefaultStages

	// WithCaller attaches the caller identity to a context.
	WithCaller = identity.WithCaller
)
