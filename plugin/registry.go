package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/provenance/event"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/product"
)

// DefaultTimeout bounds a single hook invocation.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and dispatches hooks to them in
// registration order. Hook implementations are discovered once, at
// registration time.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                  []OnInit
	onShutdown              []OnShutdown
	onParticipantAuthorized []OnParticipantAuthorized
	onParticipantRevoked    []OnParticipantRevoked
	onProductRegistered     []OnProductRegistered
	onStatusUpdated         []OnStatusUpdated
	onOwnershipTransferred  []OnOwnershipTransferred
	onEvent                 []OnEvent
	onOperationRejected     []OnOperationRejected
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout. Non-positive values keep the default.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnParticipantAuthorized); ok {
		r.onParticipantAuthorized = append(r.onParticipantAuthorized, v)
	}
	if v, ok := p.(OnParticipantRevoked); ok {
		r.onParticipantRevoked = append(r.onParticipantRevoked, v)
	}
	if v, ok := p.(OnProductRegistered); ok {
		r.onProductRegistered = append(r.onProductRegistered, v)
	}
	if v, ok := p.(OnStatusUpdated); ok {
		r.onStatusUpdated = append(r.onStatusUpdated, v)
	}
	if v, ok := p.(OnOwnershipTransferred); ok {
		r.onOwnershipTransferred = append(r.onOwnershipTransferred, v)
	}
	if v, ok := p.(OnEvent); ok {
		r.onEvent = append(r.onEvent, v)
	}
	if v, ok := p.(OnOperationRejected); ok {
		r.onOperationRejected = append(r.onOperationRejected, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnParticipantAuthorized", reflect.TypeOf((*OnParticipantAuthorized)(nil)).Elem()},
	{"OnParticipantRevoked", reflect.TypeOf((*OnParticipantRevoked)(nil)).Elem()},
	{"OnProductRegistered", reflect.TypeOf((*OnProductRegistered)(nil)).Elem()},
	{"OnStatusUpdated", reflect.TypeOf((*OnStatusUpdated)(nil)).Elem()},
	{"OnOwnershipTransferred", reflect.TypeOf((*OnOwnershipTransferred)(nil)).Elem()},
	{"OnEvent", reflect.TypeOf((*OnEvent)(nil)).Elem()},
	{"OnOperationRejected", reflect.TypeOf((*OnOperationRejected)(nil)).Elem()},
}

// implementedInterfaces returns the hook names implemented by p.
func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, l any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p, func() error {
			return p.OnInit(ctx, l)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p, func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitParticipantAuthorized emits a participant authorized hook.
func (r *Registry) EmitParticipantAuthorized(ctx context.Context, pt *participant.Participant) {
	r.mu.RLock()
	plugins := r.onParticipantAuthorized
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnParticipantAuthorized", p, func() error {
			return p.OnParticipantAuthorized(ctx, pt)
		})
	}
}

// EmitParticipantRevoked emits a participant revoked hook.
func (r *Registry) EmitParticipantRevoked(ctx context.Context, pt *participant.Participant) {
	r.mu.RLock()
	plugins := r.onParticipantRevoked
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnParticipantRevoked", p, func() error {
			return p.OnParticipantRevoked(ctx, pt)
		})
	}
}

// EmitProductRegistered emits a product registered hook.
func (r *Registry) EmitProductRegistered(ctx context.Context, prod *product.Product) {
	r.mu.RLock()
	plugins := r.onProductRegistered
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnProductRegistered", p, func() error {
			return p.OnProductRegistered(ctx, prod)
		})
	}
}

// EmitStatusUpdated emits a status updated hook.
func (r *Registry) EmitStatusUpdated(ctx context.Context, prod *product.Product, entry *product.HistoryEntry) {
	r.mu.RLock()
	plugins := r.onStatusUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnStatusUpdated", p, func() error {
			return p.OnStatusUpdated(ctx, prod, entry)
		})
	}
}

// EmitOwnershipTransferred emits an ownership transferred hook.
func (r *Registry) EmitOwnershipTransferred(ctx context.Context, prod *product.Product, t *product.Transfer) {
	r.mu.RLock()
	plugins := r.onOwnershipTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnOwnershipTransferred", p, func() error {
			return p.OnOwnershipTransferred(ctx, prod, t)
		})
	}
}

// EmitEvent hands e to every OnEvent plugin.
func (r *Registry) EmitEvent(ctx context.Context, e *event.Event) {
	r.mu.RLock()
	plugins := r.onEvent
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnEvent", p, func() error {
			return p.OnEvent(ctx, e)
		})
	}
}

// EmitOperationRejected reports a failed operation.
func (r *Registry) EmitOperationRejected(ctx context.Context, op string, opErr error) {
	r.mu.RLock()
	plugins := r.onOperationRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnOperationRejected", p, func() error {
			return p.OnOperationRejected(ctx, op, opErr)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, hook string, p Plugin, fn func() error) {
	if err := r.callWithTimeout(ctx, p.Name(), fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", p.Name(),
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// A slow plugin never holds up the ledger longer than the timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
