// Package provenance provides an embeddable supply-chain product ledger for
// Go applications.
//
// Provenance is designed as a library, not a service. It keeps an
// authorization-gated registry of products where each product carries a
// forward-only lifecycle status, a current owner, and an append-only history
// of status changes. It provides:
//
//   - Admin-managed participant authorization (the admin can never be revoked)
//   - Product registration keyed by a positive, unique product id
//   - Strictly forward status progression over a configurable stage enumeration
//   - Ownership transfer between authorized participants
//   - Full status and ownership history, oldest first
//   - Notification events for every committed mutation via plugins and sinks
//   - Memory, PostgreSQL, SQLite, and MongoDB stores built on Grove
//
// # Quick Start
//
// Create a ledger with your preferred store and the deploying identity as admin:
//
//	import (
//	    "github.com/xraph/provenance"
//	    "github.com/xraph/provenance/store/memory"
//	)
//
//	l, err := provenance.New(memory.New(), "0xadmin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Callers
//
// Every operation reads its caller from the context. Hosts resolve the caller
// through an identity.Source (a static table or HS256 bearer tokens) and
// attach it with identity.WithCaller:
//
//	admin := provenance.WithCaller(ctx, "0xadmin")
//	_ = l.AuthorizeParticipant(admin, "0xmanufacturer")
//
//	m := provenance.WithCaller(ctx, "0xmanufacturer")
//	_, err = l.RegisterProduct(m, 1001, "Organic Coffee", "Ethiopian Farms")
//	_, err = l.UpdateStatus(m, 1001, provenance.InTransit, "Warehouse A")
//
// A context without a caller is treated as an unauthorized caller.
//
// # Stages
//
// Status is an ordinal into the configured stage enumeration. The default is
// Manufactured, InTransit, Delivered; longer enumerations are configured with
// WithStages. A product only moves to a strictly greater status, may skip
// stages, and stays at the last stage once reached.
//
// # Events
//
// Each successful mutation emits one event.Event after it is committed.
// Register an event.Sink with WithSink or a plugin with WithPlugin; plugins
// may also implement the typed hooks in the plugin package. Hooks run in
// commit order with a bounded timeout and never roll back a mutation.
//
// # Errors
//
// Rejected operations return one of the sentinel errors in this package
// (ErrNotAuthorized, ErrDuplicateProduct, ErrInvalidProgression, ...) and
// leave the ledger unchanged. Use errors.Is or the IsNotFound, IsAuthError,
// IsValidationError, and IsRetryable helpers to classify them.
package provenance
