// Package observability provides a metrics plugin for a provenance ledger
// that records mutation and rejection counts through a MetricFactory.
package observability

import (
	"context"
	"errors"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/plugin"
	"github.com/xraph/provenance/product"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                  = (*MetricsExtension)(nil)
	_ plugin.OnParticipantAuthorized = (*MetricsExtension)(nil)
	_ plugin.OnParticipantRevoked    = (*MetricsExtension)(nil)
	_ plugin.OnProductRegistered     = (*MetricsExtension)(nil)
	_ plugin.OnStatusUpdated         = (*MetricsExtension)(nil)
	_ plugin.OnOwnershipTransferred  = (*MetricsExtension)(nil)
	_ plugin.OnOperationRejected     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger activity metrics.
// Register it as a ledger plugin to track them automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Participant metrics
	ParticipantAuthorized Counter
	ParticipantRevoked    Counter

	// Product metrics
	ProductRegistered    Counter
	StatusUpdated        Counter
	OwnershipTransferred Counter
	StatusReached        Histogram
	HistoryLength        Histogram
	TransferChainLength  Histogram

	// Rejection metrics
	RejectedAuth       Counter
	RejectedValidation Counter
	RejectedNotFound   Counter
	StoreErrors        Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		ParticipantAuthorized: factory.Counter("provenance.participant.authorized"),
		ParticipantRevoked:    factory.Counter("provenance.participant.revoked"),

		ProductRegistered:    factory.Counter("provenance.product.registered"),
		StatusUpdated:        factory.Counter("provenance.product.status_updated"),
		OwnershipTransferred: factory.Counter("provenance.product.ownership_transferred"),
		StatusReached:        factory.Histogram("provenance.product.status"),
		HistoryLength:        factory.Histogram("provenance.product.history_length"),
		TransferChainLength:  factory.Histogram("provenance.product.transfer_chain_length"),

		RejectedAuth:       factory.Counter("provenance.rejected.auth"),
		RejectedValidation: factory.Counter("provenance.rejected.validation"),
		RejectedNotFound:   factory.Counter("provenance.rejected.not_found"),
		StoreErrors:        factory.Counter("provenance.store.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ──────────────────────────────────────────────────
// Participant hooks
// ──────────────────────────────────────────────────

// OnParticipantAuthorized implements plugin.OnParticipantAuthorized.
func (m *MetricsExtension) OnParticipantAuthorized(_ context.Context, _ *participant.Participant) error {
	m.ParticipantAuthorized.Inc()
	return nil
}

// OnParticipantRevoked implements plugin.OnParticipantRevoked.
func (m *MetricsExtension) OnParticipantRevoked(_ context.Context, _ *participant.Participant) error {
	m.ParticipantRevoked.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Product hooks
// ──────────────────────────────────────────────────

// OnProductRegistered implements plugin.OnProductRegistered.
func (m *MetricsExtension) OnProductRegistered(_ context.Context, _ *product.Product) error {
	m.ProductRegistered.Inc()
	return nil
}

// OnStatusUpdated implements plugin.OnStatusUpdated.
func (m *MetricsExtension) OnStatusUpdated(_ context.Context, p *product.Product, entry *product.HistoryEntry) error {
	m.StatusUpdated.Inc()
	m.StatusReached.Observe(float64(entry.Status))
	m.HistoryLength.Observe(float64(p.HistoryCount))
	return nil
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (m *MetricsExtension) OnOwnershipTransferred(_ context.Context, p *product.Product, _ *product.Transfer) error {
	m.OwnershipTransferred.Inc()
	m.TransferChainLength.Observe(float64(p.TransferCount))
	return nil
}

// ──────────────────────────────────────────────────
// Rejections
// ──────────────────────────────────────────────────

// OnOperationRejected implements plugin.OnOperationRejected.
func (m *MetricsExtension) OnOperationRejected(_ context.Context, _ string, err error) error {
	switch {
	case provenance.IsAuthError(err):
		m.RejectedAuth.Inc()
	case provenance.IsNotFound(err):
		m.RejectedNotFound.Inc()
	case provenance.IsValidationError(err):
		m.RejectedValidation.Inc()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// caller gave up; not a store fault
	default:
		m.StoreErrors.Inc()
	}
	return nil
}
