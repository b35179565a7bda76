// Package audithook bridges provenance ledger mutations to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import any
// audit backend directly. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/plugin"
	"github.com/xraph/provenance/product"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                  = (*Extension)(nil)
	_ plugin.OnParticipantAuthorized = (*Extension)(nil)
	_ plugin.OnParticipantRevoked    = (*Extension)(nil)
	_ plugin.OnProductRegistered     = (*Extension)(nil)
	_ plugin.OnStatusUpdated         = (*Extension)(nil)
	_ plugin.OnOwnershipTransferred  = (*Extension)(nil)
	_ plugin.OnOperationRejected     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension records every committed ledger mutation and every rejected
// operation to a Recorder.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Participant hooks
// ──────────────────────────────────────────────────

// OnParticipantAuthorized implements plugin.OnParticipantAuthorized.
func (e *Extension) OnParticipantAuthorized(ctx context.Context, p *participant.Participant) error {
	return e.record(ctx, ActionParticipantAuthorized, SeverityInfo, OutcomeSuccess,
		ResourceParticipant, p.Identity.String(), CategoryAccess, nil,
		"admin", p.Admin,
	)
}

// OnParticipantRevoked implements plugin.OnParticipantRevoked.
func (e *Extension) OnParticipantRevoked(ctx context.Context, p *participant.Participant) error {
	return e.record(ctx, ActionParticipantRevoked, SeverityWarning, OutcomeSuccess,
		ResourceParticipant, p.Identity.String(), CategoryAccess, nil,
	)
}

// ──────────────────────────────────────────────────
// Product hooks
// ──────────────────────────────────────────────────

// OnProductRegistered implements plugin.OnProductRegistered.
func (e *Extension) OnProductRegistered(ctx context.Context, p *product.Product) error {
	return e.record(ctx, ActionProductRegistered, SeverityInfo, OutcomeSuccess,
		ResourceProduct, productRef(p.ProductID), CategoryProvenance, nil,
		"product_name", p.ProductName,
		"manufacturer_name", p.ManufacturerName,
		"manufacturer", p.Manufacturer.String(),
	)
}

// OnStatusUpdated implements plugin.OnStatusUpdated.
func (e *Extension) OnStatusUpdated(ctx context.Context, p *product.Product, entry *product.HistoryEntry) error {
	return e.record(ctx, ActionStatusUpdated, SeverityInfo, OutcomeSuccess,
		ResourceProduct, productRef(p.ProductID), CategoryProvenance, nil,
		"status", int(entry.Status),
		"location", entry.Location,
		"seq", entry.Seq,
	)
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (e *Extension) OnOwnershipTransferred(ctx context.Context, p *product.Product, t *product.Transfer) error {
	return e.record(ctx, ActionOwnershipTransferred, SeverityInfo, OutcomeSuccess,
		ResourceProduct, productRef(p.ProductID), CategoryCustody, nil,
		"from", t.From.String(),
		"to", t.To.String(),
		"seq", t.Seq,
	)
}

// ──────────────────────────────────────────────────
// Rejections
// ──────────────────────────────────────────────────

// OnOperationRejected implements plugin.OnOperationRejected. Authorization
// failures are recorded as warnings, everything else as info.
func (e *Extension) OnOperationRejected(ctx context.Context, op string, err error) error {
	severity, category := SeverityInfo, CategoryEnforcement
	switch {
	case provenance.IsAuthError(err):
		severity, category = SeverityWarning, CategoryAccess
	case !provenance.IsValidationError(err) && !provenance.IsNotFound(err):
		severity = SeverityError
	}

	return e.record(ctx, ActionOperationRejected, severity, OutcomeFailure,
		ResourceOperation, op, category, err,
		"operation", op,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func productRef(pid uint64) string {
	return strconv.FormatUint(pid, 10)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	caller, _ := identity.FromContext(ctx)

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Actor:      caller.String(),
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
