package observability_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/observability"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/store/memory"
)

type fakeFactory struct {
	mu       sync.Mutex
	counters map[string]*fakeMetric
	hists    map[string]*fakeMetric
}

type fakeMetric struct {
	mu     sync.Mutex
	total  float64
	values []float64
}

func (f *fakeMetric) Inc() { f.Add(1) }

func (f *fakeMetric) Add(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total += v
}

func (f *fakeMetric) Observe(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = append(f.values, v)
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{counters: map[string]*fakeMetric{}, hists: map[string]*fakeMetric{}}
}

func (f *fakeFactory) Counter(name string) observability.Counter {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &fakeMetric{}
	f.counters[name] = m
	return m
}

func (f *fakeFactory) Histogram(name string) observability.Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &fakeMetric{}
	f.hists[name] = m
	return m
}

func (f *fakeFactory) count(name string) float64 {
	m, ok := f.counters[name]
	if !ok {
		panic(fmt.Sprintf("no counter %q", name))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

func TestMetricsExtensionCountsLedgerActivity(t *testing.T) {
	factory := newFakeFactory()
	metrics := observability.NewMetricsExtension(factory)

	l, err := provenance.New(memory.New(), "0xadmin",
		provenance.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		provenance.WithPlugin(metrics),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = l.Stop() }()

	asAdmin := identity.WithCaller(ctx, "0xadmin")
	asM := identity.WithCaller(ctx, "0xm")

	_ = l.AuthorizeParticipant(asAdmin, "0xm")
	_ = l.AuthorizeParticipant(asAdmin, "0xd")
	_, _ = l.RegisterProduct(asM, 1, "P", "M")
	_, _ = l.UpdateStatus(asM, 1, product.Delivered, "Shop")
	_, _ = l.TransferOwnership(asM, 1, "0xd")
	_ = l.RevokeParticipant(asAdmin, "0xd")

	// rejections
	_, _ = l.RegisterProduct(identity.WithCaller(ctx, "0xnobody"), 2, "P", "M")
	_, _ = l.RegisterProduct(asM, 1, "P", "M")
	_, _ = l.UpdateStatus(asM, 42, product.InTransit, "X")
	_ = l.RevokeParticipant(asAdmin, "0xadmin")

	tests := []struct {
		name string
		want float64
	}{
		{"provenance.participant.authorized", 2},
		{"provenance.participant.revoked", 1},
		{"provenance.product.registered", 1},
		{"provenance.product.status_updated", 1},
		{"provenance.product.ownership_transferred", 1},
		{"provenance.rejected.auth", 2},
		{"provenance.rejected.validation", 1},
		{"provenance.rejected.not_found", 1},
		{"provenance.store.errors", 0},
	}
	for _, tt := range tests {
		if got := factory.count(tt.name); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}

	status := factory.hists["provenance.product.status"]
	if len(status.values) != 1 || status.values[0] != float64(product.Delivered) {
		t.Errorf("status histogram = %v", status.values)
	}
	hist := factory.hists["provenance.product.history_length"]
	if len(hist.values) != 1 || hist.values[0] != 2 {
		t.Errorf("history length histogram = %v", hist.values)
	}
}

func TestMetricsExtensionStoreErrors(t *testing.T) {
	factory := newFakeFactory()
	metrics := observability.NewMetricsExtension(factory)

	_ = metrics.OnOperationRejected(context.Background(), provenance.OpUpdateStatus, errors.New("connection reset"))
	_ = metrics.OnOperationRejected(context.Background(), provenance.OpUpdateStatus, context.Canceled)

	if got := factory.count("provenance.store.errors"); got != 1 {
		t.Errorf("store errors = %v, want 1", got)
	}
}
