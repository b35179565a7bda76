package provenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/xraph/provenance/event"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/plugin"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/types"
)

// Operation names reported to OnOperationRejected hooks and logs.
const (
	OpAuthorizeParticipant = "authorize_participant"
	OpRevokeParticipant    = "revoke_participant"
	OpRegisterProduct      = "register_product"
	OpUpdateStatus         = "update_status"
	OpTransferOwnership    = "transfer_ownership"
)

// Ledger is the product ledger engine.
//
// Every mutation runs its full check-then-commit sequence under a single
// write lock; reads share a read lock and never observe a partially
// applied mutation. Hooks and sinks run after the commit, in commit order.
type Ledger struct {
	mu     sync.RWMutex
	emitMu sync.Mutex

	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	admin   identity.Identity
	stages  product.Stages
	now     func() time.Time
	migrate bool

	sinks   int
	optErrs MultiError
}

// New creates a Ledger over s with admin as its permanent administrator.
func New(s store.Store, admin identity.Identity, opts ...Option) (*Ledger, error) {
	if s == nil {
		return nil, ErrStoreNotReady
	}
	if admin.IsZero() {
		return nil, fmt.Errorf("%w: admin is empty", ErrInvalidIdentity)
	}

	l := &Ledger{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		admin:   admin,
		stages:  product.DefaultStages.Clone(),
		now:     time.Now,
		migrate: true,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.optErrs.HasErrors() {
		return nil, l.optErrs
	}
	if err := ValidateStages(l.stages); err != nil {
		return nil, err
	}

	return l, nil
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		l.optErrs.Add(l.plugins.Register(p))
	}
}

// WithSink publishes every event to s after the corresponding hook.
func WithSink(s event.Sink) Option {
	return func(l *Ledger) {
		l.sinks++
		l.optErrs.Add(l.plugins.Register(plugin.FromSink(fmt.Sprintf("sink-%d", l.sinks), s)))
	}
}

// WithStages replaces the default Manufactured/InTransit/Delivered enumeration.
func WithStages(stages product.Stages) Option {
	return func(l *Ledger) {
		l.stages = stages.Clone()
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithPluginTimeout bounds each hook invocation.
func WithPluginTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithMigrate controls whether Start runs store migrations. Defaults to true.
func WithMigrate(enabled bool) Option {
	return func(l *Ledger) {
		l.migrate = enabled
	}
}

// ValidateStages checks that stages is a usable enumeration: at least
// product.MinStages unique, non-empty names and no more than product.MaxStages.
func ValidateStages(stages product.Stages) error {
	var errs MultiError

	if len(stages) < product.MinStages {
		errs.Add(ValidationError{Field: "stages", Message: fmt.Sprintf("need at least %d stages, got %d", product.MinStages, len(stages))})
	}
	if len(stages) > product.MaxStages {
		errs.Add(ValidationError{Field: "stages", Message: fmt.Sprintf("at most %d stages are supported, got %d", product.MaxStages, len(stages))})
	}

	seen := make(map[string]int, len(stages))
	for i, name := range stages {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			errs.Add(ValidationError{Field: fmt.Sprintf("stages[%d]", i), Message: "name is empty"})
			continue
		}
		if j, dup := seen[key]; dup {
			errs.Add(ValidationError{Field: fmt.Sprintf("stages[%d]", i), Message: fmt.Sprintf("duplicates stages[%d] %q", j, stages[j])})
			continue
		}
		seen[key] = i
	}

	if errs.HasErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidStages, errs)
	}
	return nil
}

// Start migrates the store, records the admin participant, and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if l.migrate {
		if err := l.store.Migrate(ctx); err != nil {
			return err
		}
	}

	if err := l.ensureAdmin(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("provenance ledger started",
		"admin", l.admin,
		"stages", []string(l.stages),
		"plugins", l.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

func (l *Ledger) ensureAdmin(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.store.GetParticipant(ctx, l.admin)
	switch {
	case errors.Is(err, ErrParticipantNotFound):
		now := l.timestamp()
		p = &participant.Participant{
			Entity:   types.NewEntityAt(now),
			Identity: l.admin,
			Admin:    true,
		}
		p.Authorize(now)
	case err != nil:
		return fmt.Errorf("provenance: load admin: %w", err)
	case p.Admin && p.Authorized:
		return nil
	default:
		p.Admin = true
		p.Authorize(l.timestamp())
	}

	if err := l.store.SaveParticipant(ctx, p); err != nil {
		return fmt.Errorf("provenance: save admin: %w", err)
	}
	return nil
}

// timestamp returns the current time at the resolution every store keeps.
func (l *Ledger) timestamp() time.Time {
	return l.now().UTC().Truncate(time.Microsecond)
}

// mutate runs fn under the write lock. On success the returned notify
// callback runs after the lock is released but before the next mutation
// can notify, so observers see events in commit order. Hooks get a context
// that keeps the caller's values but not its cancellation: a committed
// mutation is always delivered.
func (l *Ledger) mutate(ctx context.Context, op string, fn func() (notify func(context.Context), err error)) error {
	hctx := context.WithoutCancel(ctx)

	l.mu.Lock()
	notify, err := fn()
	if err != nil {
		l.mu.Unlock()
		l.logger.Debug("operation rejected", "op", op, "error", err)
		l.plugins.EmitOperationRejected(hctx, op, err)
		return err
	}

	l.emitMu.Lock()
	l.mu.Unlock()
	defer l.emitMu.Unlock()

	notify(hctx)
	return nil
}

func (l *Ledger) emit(ctx context.Context, e *event.Event) {
	l.plugins.EmitEvent(ctx, e)
}

// ──────────────────────────────────────────────────
// Participant Management
// ──────────────────────────────────────────────────

// Admin returns the permanently authorized administrator.
func (l *Ledger) Admin() identity.Identity {
	return l.admin
}

// AuthorizeParticipant authorizes target. Only the admin may call it.
// Re-authorizing an authorized participant succeeds and emits again.
func (l *Ledger) AuthorizeParticipant(ctx context.Context, target identity.Identity) error {
	return l.mutate(ctx, OpAuthorizeParticipant, func() (func(context.Context), error) {
		caller, err := l.requireAdmin(ctx)
		if err != nil {
			return nil, err
		}
		if target.IsZero() {
			return nil, ErrInvalidIdentity
		}

		now := l.timestamp()
		p, err := l.loadParticipant(ctx, target, now)
		if err != nil {
			return nil, err
		}
		p.Authorize(now)
		if target == l.admin {
			p.Admin = true
		}

		if err := l.store.SaveParticipant(ctx, p); err != nil {
			return nil, err
		}

		l.logger.Info("participant authorized", "participant", target, "by", caller)

		return func(hctx context.Context) {
			l.plugins.EmitParticipantAuthorized(hctx, p)
			e := event.ParticipantAuthorized(target, now)
			e.Actor = caller
			l.emit(hctx, e)
		}, nil
	})
}

// RevokeParticipant removes the authorization of target. Only the admin
// may call it and the admin itself can never be revoked. Products already
// owned by target keep their owner.
func (l *Ledger) RevokeParticipant(ctx context.Context, target identity.Identity) error {
	return l.mutate(ctx, OpRevokeParticipant, func() (func(context.Context), error) {
		caller, err := l.requireAdmin(ctx)
		if err != nil {
			return nil, err
		}
		if target.IsZero() {
			return nil, ErrInvalidIdentity
		}
		if target == l.admin {
			return nil, ErrCannotRevokeAdmin
		}

		now := l.timestamp()
		p, err := l.loadParticipant(ctx, target, now)
		if err != nil {
			return nil, err
		}
		p.Revoke(now)

		if err := l.store.SaveParticipant(ctx, p); err != nil {
			return nil, err
		}

		l.logger.Info("participant revoked", "participant", target, "by", caller)

		return func(hctx context.Context) {
			l.plugins.EmitParticipantRevoked(hctx, p)
			e := event.ParticipantRevoked(target, now)
			e.Actor = caller
			l.emit(hctx, e)
		}, nil
	})
}

// IsAuthorized reports whether who is currently an authorized participant.
func (l *Ledger) IsAuthorized(ctx context.Context, who identity.Identity) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.isAuthorized(ctx, who)
}

// GetParticipant returns the participant record for who.
func (l *Ledger) GetParticipant(ctx context.Context, who identity.Identity) (*participant.Participant, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.GetParticipant(ctx, who)
}

// ListParticipants lists known participants, oldest first.
func (l *Ledger) ListParticipants(ctx context.Context, opts participant.ListOpts) ([]*participant.Participant, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ListParticipants(ctx, opts)
}

func (l *Ledger) isAuthorized(ctx context.Context, who identity.Identity) (bool, error) {
	if who.IsZero() {
		return false, nil
	}
	if who == l.admin {
		return true, nil
	}
	p, err := l.store.GetParticipant(ctx, who)
	if errors.Is(err, ErrParticipantNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.Authorized, nil
}

func (l *Ledger) loadParticipant(ctx context.Context, who identity.Identity, now time.Time) (*participant.Participant, error) {
	p, err := l.store.GetParticipant(ctx, who)
	if errors.Is(err, ErrParticipantNotFound) {
		return &participant.Participant{
			Entity:   types.NewEntityAt(now),
			Identity: who,
		}, nil
	}
	return p, err
}

func (l *Ledger) requireAdmin(ctx context.Context) (identity.Identity, error) {
	caller, ok := identity.FromContext(ctx)
	if !ok || caller != l.admin {
		return "", ErrNotAuthorized
	}
	return caller, nil
}

func (l *Ledger) requireAuthorized(ctx context.Context) (identity.Identity, error) {
	caller, ok := identity.FromContext(ctx)
	if !ok {
		return "", ErrNotAuthorized
	}
	authorized, err := l.isAuthorized(ctx, caller)
	if err != nil {
		return "", err
	}
	if !authorized {
		return "", ErrNotAuthorized
	}
	return caller, nil
}

// ──────────────────────────────────────────────────
// Product Lifecycle
// ──────────────────────────────────────────────────

// RegisterProduct registers a new product owned by the caller, starting at
// the first stage. manufacturerName is a free-text label and also becomes
// the location of the registration history entry.
func (l *Ledger) RegisterProduct(ctx context.Context, productID uint64, productName, manufacturerName string) (*product.Product, error) {
	var registered *product.Product

	err := l.mutate(ctx, OpRegisterProduct, func() (func(context.Context), error) {
		caller, err := l.requireAuthorized(ctx)
		if err != nil {
			return nil, err
		}
		if productID == 0 {
			return nil, ErrInvalidProductID
		}
		if productName == "" {
			return nil, ErrEmptyName
		}

		_, err = l.store.GetProduct(ctx, productID)
		switch {
		case err == nil:
			return nil, fmt.Errorf("%w: %d", ErrDuplicateProduct, productID)
		case !errors.Is(err, ErrProductNotFound):
			return nil, err
		}

		now := l.timestamp()
		p := &product.Product{
			Entity:           types.NewEntityAt(now),
			ProductID:        productID,
			ProductName:      productName,
			ManufacturerName: manufacturerName,
			Manufacturer:     caller,
			CurrentStatus:    0,
			CurrentOwner:     caller,
			HistoryCount:     1,
			Exists:           true,
		}
		first := &product.HistoryEntry{
			ID:        id.NewHistoryID(),
			ProductID: productID,
			Seq:       1,
			Status:    0,
			Location:  manufacturerName,
			Actor:     caller,
			Timestamp: now,
		}

		if err := l.store.CreateProduct(ctx, p, first); err != nil {
			return nil, err
		}

		l.logger.Info("product registered",
			"product_id", productID,
			"name", productName,
			"manufacturer", caller,
		)

		registered = p
		return func(hctx context.Context) {
			l.plugins.EmitProductRegistered(hctx, p)
			l.emit(hctx, event.ProductRegistered(productID, productName, caller, now))
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return registered, nil
}

// UpdateStatus advances a product to newStatus and records location in its
// history. Any authorized participant may advance any product; the new
// status must be strictly greater than the current one.
func (l *Ledger) UpdateStatus(ctx context.Context, productID uint64, newStatus product.Status, location string) (*product.HistoryEntry, error) {
	var recorded *product.HistoryEntry

	err := l.mutate(ctx, OpUpdateStatus, func() (func(context.Context), error) {
		caller, err := l.requireAuthorized(ctx)
		if err != nil {
			return nil, err
		}

		p, err := l.store.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		if location == "" {
			return nil, ErrEmptyLocation
		}
		if !l.stages.Valid(newStatus) {
			return nil, fmt.Errorf("%w: %d (max %d)", ErrUnknownStatus, newStatus, l.stages.Max())
		}
		if newStatus <= p.CurrentStatus {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidProgression,
				l.stages.Name(p.CurrentStatus), l.stages.Name(newStatus))
		}

		now := l.timestamp()
		prev := p.CurrentStatus
		p.CurrentStatus = newStatus
		p.HistoryCount++
		p.UpdatedAt = now

		entry := &product.HistoryEntry{
			ID:        id.NewHistoryID(),
			ProductID: productID,
			Seq:       p.HistoryCount,
			Status:    newStatus,
			Location:  location,
			Actor:     caller,
			Timestamp: now,
		}

		if err := l.store.AppendHistory(ctx, p, entry); err != nil {
			return nil, err
		}

		l.logger.Info("product status updated",
			"product_id", productID,
			"from", l.stages.Name(prev),
			"to", l.stages.Name(newStatus),
			"location", location,
			"by", caller,
		)

		recorded = entry
		return func(hctx context.Context) {
			l.plugins.EmitStatusUpdated(hctx, p, entry)
			l.emit(hctx, event.StatusUpdated(productID, newStatus, location, now, caller))
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// TransferOwnership hands a product from the caller, its current owner, to
// newOwner, who must be an authorized participant other than the caller.
func (l *Ledger) TransferOwnership(ctx context.Context, productID uint64, newOwner identity.Identity) (*product.Transfer, error) {
	var recorded *product.Transfer

	err := l.mutate(ctx, OpTransferOwnership, func() (func(context.Context), error) {
		caller, err := l.requireAuthorized(ctx)
		if err != nil {
			return nil, err
		}

		p, err := l.store.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		if p.CurrentOwner != caller {
			return nil, ErrNotCurrentOwner
		}
		ok, err := l.isAuthorized(ctx, newOwner)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNewOwnerNotAuthorized
		}
		if newOwner == caller {
			return nil, ErrSelfTransfer
		}

		now := l.timestamp()
		p.CurrentOwner = newOwner
		p.TransferCount++
		p.UpdatedAt = now

		t := &product.Transfer{
			ID:        id.NewTransferID(),
			ProductID: productID,
			Seq:       p.TransferCount,
			From:      caller,
			To:        newOwner,
			Timestamp: now,
		}

		if err := l.store.TransferProduct(ctx, p, t); err != nil {
			return nil, err
		}

		l.logger.Info("product ownership transferred",
			"product_id", productID,
			"from", caller,
			"to", newOwner,
		)

		recorded = t
		return func(hctx context.Context) {
			l.plugins.EmitOwnershipTransferred(hctx, p, t)
			l.emit(hctx, event.OwnershipTransferred(productID, caller, newOwner, now))
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// ──────────────────────────────────────────────────
// Read Accessors
// ──────────────────────────────────────────────────

// GetProduct returns the product registered under productID.
func (l *Ledger) GetProduct(ctx context.Context, productID uint64) (*product.Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.GetProduct(ctx, productID)
}

// GetProductStatus returns the current status of a product.
func (l *Ledger) GetProductStatus(ctx context.Context, productID uint64) (product.Status, error) {
	p, err := l.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.CurrentStatus, nil
}

// GetCurrentOwner returns the current owner of a product.
func (l *Ledger) GetCurrentOwner(ctx context.Context, productID uint64) (identity.Identity, error) {
	p, err := l.GetProduct(ctx, productID)
	if err != nil {
		return "", err
	}
	return p.CurrentOwner, nil
}

// GetHistoryCount returns the number of history entries of a product.
func (l *Ledger) GetHistoryCount(ctx context.Context, productID uint64) (int, error) {
	p, err := l.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.HistoryCount, nil
}

// GetProductHistory returns the status history of a product, oldest first.
func (l *Ledger) GetProductHistory(ctx context.Context, productID uint64) ([]*product.HistoryEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ListHistory(ctx, productID)
}

// GetOwnershipHistory returns the ownership transfers of a product, oldest first.
func (l *Ledger) GetOwnershipHistory(ctx context.Context, productID uint64) ([]*product.Transfer, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ListTransfers(ctx, productID)
}

// VerifyProduct answers whether productID is registered. Unknown ids yield
// the zero Verification; only store failures are returned as errors.
func (l *Ledger) VerifyProduct(ctx context.Context, productID uint64) (product.Verification, error) {
	p, err := l.GetProduct(ctx, productID)
	if errors.Is(err, ErrProductNotFound) {
		return product.Verification{}, nil
	}
	if err != nil {
		return product.Verification{}, err
	}
	return product.Verification{
		Exists:      p.Exists,
		ProductName: p.ProductName,
		Status:      p.CurrentStatus,
	}, nil
}

// TotalProducts returns the number of products ever registered.
func (l *Ledger) TotalProducts(ctx context.Context) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.CountProducts(ctx)
}

// ListProducts lists products ordered by id.
func (l *Ledger) ListProducts(ctx context.Context, opts product.ListOpts) ([]*product.Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ListProducts(ctx, opts)
}

// Stages returns a copy of the configured stage enumeration.
func (l *Ledger) Stages() product.Stages {
	return l.stages.Clone()
}

// StatusName returns the configured name of s.
func (l *Ledger) StatusName(s product.Status) string {
	return l.stages.Name(s)
}

// ParseStatus resolves a stage name to its status.
func (l *Ledger) ParseStatus(name string) (product.Status, error) {
	s, ok := l.stages.Parse(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, name)
	}
	return s, nil
}

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry {
	return l.plugins
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store {
	return l.store
}
