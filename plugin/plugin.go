// Package plugin provides the hook system a provenance ledger dispatches to
// after each committed mutation. Plugins implement any subset of the hook
// interfaces below; the Registry discovers them on registration.
//
// Hooks run synchronously while the ledger holds its notification lock.
// A hook must not call a mutating Ledger method (AuthorizeParticipant,
// RevokeParticipant, RegisterProduct, UpdateStatus, TransferOwnership)
// synchronously: the nested call waits for that lock and the outer hook
// only returns when the plugin timeout expires. Start such calls in a new
// goroutine instead. Read methods are safe.
package plugin

import (
	"context"

	"github.com/xraph/provenance/event"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/product"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts. l is the *provenance.Ledger;
// plugins that keep it must not mutate it from inside another hook.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Participant hooks
// ──────────────────────────────────────────────────

// OnParticipantAuthorized is called after a participant is authorized.
type OnParticipantAuthorized interface {
	Plugin
	OnParticipantAuthorized(ctx context.Context, p *participant.Participant) error
}

// OnParticipantRevoked is called after a participant loses its authorization.
type OnParticipantRevoked interface {
	Plugin
	OnParticipantRevoked(ctx context.Context, p *participant.Participant) error
}

// ──────────────────────────────────────────────────
// Product hooks
// ──────────────────────────────────────────────────

// OnProductRegistered is called after a product is registered.
type OnProductRegistered interface {
	Plugin
	OnProductRegistered(ctx context.Context, p *product.Product) error
}

// OnStatusUpdated is called after a product advances to a new status.
type OnStatusUpdated interface {
	Plugin
	OnStatusUpdated(ctx context.Context, p *product.Product, entry *product.HistoryEntry) error
}

// OnOwnershipTransferred is called after a product changes owner.
type OnOwnershipTransferred interface {
	Plugin
	OnOwnershipTransferred(ctx context.Context, p *product.Product, t *product.Transfer) error
}

// ──────────────────────────────────────────────────
// Generic hooks
// ──────────────────────────────────────────────────

// OnEvent receives every notification record, after the typed hook for
// the same mutation.
type OnEvent interface {
	Plugin
	OnEvent(ctx context.Context, e *event.Event) error
}

// OnOperationRejected is called when an operation fails validation or
// the store rejects its commit. Nothing was changed.
type OnOperationRejected interface {
	Plugin
	OnOperationRejected(ctx context.Context, op string, err error) error
}

// ──────────────────────────────────────────────────
// Sink adapter
// ──────────────────────────────────────────────────

type sinkPlugin struct {
	name string
	sink event.Sink
}

// FromSink wraps an event.Sink as an OnEvent plugin.
func FromSink(name string, s event.Sink) Plugin {
	return &sinkPlugin{name: name, sink: s}
}

func (p *sinkPlugin) Name() string { return p.name }

func (p *sinkPlugin) OnEvent(ctx context.Context, e *event.Event) error {
	return p.sink.Publish(ctx, e)
}
