package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/types"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestStore opens a migrated store on a fresh database file.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	drv := sqlitedriver.New()
	if err := drv.Open(ctx, filepath.Join(t.TempDir(), "provenance.db")); err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		t.Fatalf("grove.Open: %v", err)
	}
	s := New(db)
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func newProduct(pid uint64, owner identity.Identity) (*product.Product, *product.HistoryEntry) {
	p := &product.Product{
		Entity:           types.NewEntityAt(t0),
		ProductID:        pid,
		ProductName:      "Organic Coffee",
		ManufacturerName: "Ethiopian Farms",
		Manufacturer:     owner,
		CurrentOwner:     owner,
		HistoryCount:     1,
		Exists:           true,
	}
	e := &product.HistoryEntry{
		ID:        id.NewHistoryID(),
		ProductID: pid,
		Seq:       1,
		Location:  "Ethiopian Farms",
		Actor:     owner,
		Timestamp: t0,
	}
	return p, e
}

func TestMigrateIsRepeatable(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestParticipantRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetParticipant(ctx, "0xm"); !errors.Is(err, provenance.ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}

	p := &participant.Participant{Entity: types.NewEntityAt(t0), Identity: "0xm"}
	p.Authorize(t0)
	if err := s.SaveParticipant(ctx, p); err != nil {
		t.Fatalf("SaveParticipant: %v", err)
	}

	got, err := s.GetParticipant(ctx, "0xm")
	if err != nil {
		t.Fatalf("GetParticipant: %v", err)
	}
	if !got.Authorized || got.AuthorizedAt == nil || !got.AuthorizedAt.Equal(t0) {
		t.Errorf("unexpected participant: %+v", got)
	}

	later := t0.Add(time.Hour)
	p.Revoke(later)
	if err := s.SaveParticipant(ctx, p); err != nil {
		t.Fatalf("SaveParticipant (revoke): %v", err)
	}
	got, err = s.GetParticipant(ctx, "0xm")
	if err != nil {
		t.Fatalf("GetParticipant: %v", err)
	}
	if got.Authorized || got.RevokedAt == nil || !got.RevokedAt.Equal(later) {
		t.Errorf("revocation not stored: %+v", got)
	}

	authorized, err := s.ListParticipants(ctx, participant.ListOpts{AuthorizedOnly: true})
	if err != nil {
		t.Fatalf("ListParticipants: %v", err)
	}
	if len(authorized) != 0 {
		t.Errorf("expected no authorized participants, got %d", len(authorized))
	}
}

func TestCreateProductRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, first := newProduct(1001, "0xm")
	if err := s.CreateProduct(ctx, p, first); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	again, second := newProduct(1001, "0xother")
	if err := s.CreateProduct(ctx, again, second); !errors.Is(err, provenance.ErrDuplicateProduct) {
		t.Fatalf("expected ErrDuplicateProduct, got %v", err)
	}

	got, err := s.GetProduct(ctx, 1001)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.CurrentOwner != "0xm" || got.HistoryCount != 1 {
		t.Errorf("duplicate overwrote product: %+v", got)
	}
	history, err := s.ListHistory(ctx, 1001)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != 1 || history[0].Actor != "0xm" {
		t.Errorf("unexpected history after duplicate: %+v", history)
	}
}

func TestUncommittedHistoryIsHiddenAndReplaced(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, first := newProduct(7, "0xm")
	if err := s.CreateProduct(ctx, p, first); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	// A history row whose product update never landed.
	orphan := &product.HistoryEntry{
		ID:        id.NewHistoryID(),
		ProductID: 7,
		Seq:       2,
		Status:    product.Delivered,
		Location:  "nowhere",
		Actor:     "0xm",
		Timestamp: t0,
	}
	if err := s.putHistory(ctx, orphan); err != nil {
		t.Fatalf("putHistory: %v", err)
	}

	history, err := s.ListHistory(ctx, 7)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("orphan row listed: got %d entries", len(history))
	}

	p.CurrentStatus = product.InTransit
	p.HistoryCount = 2
	entry := &product.HistoryEntry{
		ID:        id.NewHistoryID(),
		ProductID: 7,
		Seq:       2,
		Status:    product.InTransit,
		Location:  "Warehouse A",
		Actor:     "0xm",
		Timestamp: t0.Add(time.Minute),
	}
	if err := s.AppendHistory(ctx, p, entry); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	history, err = s.ListHistory(ctx, 7)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d entries, want 2", len(history))
	}
	if history[1].Location != "Warehouse A" || history[1].Status != product.InTransit {
		t.Errorf("orphan not replaced: %+v", history[1])
	}
	if history[1].ID.String() != entry.ID.String() {
		t.Errorf("entry id = %s, want %s", history[1].ID, entry.ID)
	}
}

func TestTransferProduct(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, first := newProduct(1, "0xm")
	if err := s.CreateProduct(ctx, p, first); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	p.CurrentOwner = "0xd"
	p.TransferCount = 1
	tr := &product.Transfer{
		ID:        id.NewTransferID(),
		ProductID: 1,
		Seq:       1,
		From:      "0xm",
		To:        "0xd",
		Timestamp: t0,
	}
	if err := s.TransferProduct(ctx, p, tr); err != nil {
		t.Fatalf("TransferProduct: %v", err)
	}

	got, err := s.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.CurrentOwner != "0xd" || got.TransferCount != 1 {
		t.Errorf("unexpected product: %+v", got)
	}
	transfers, err := s.ListTransfers(ctx, 1)
	if err != nil {
		t.Fatalf("ListTransfers: %v", err)
	}
	if len(transfers) != 1 || transfers[0].From != "0xm" || transfers[0].To != "0xd" {
		t.Errorf("unexpected transfers: %+v", transfers)
	}

	missing, _ := newProduct(99, "0xm")
	missing.TransferCount = 1
	stray := &product.Transfer{
		ID:        id.NewTransferID(),
		ProductID: 99,
		Seq:       1,
		From:      "0xm",
		To:        "0xd",
		Timestamp: t0,
	}
	if err := s.TransferProduct(ctx, missing, stray); !errors.Is(err, provenance.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestListProductsUnsignedOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const high = uint64(9223372036854775813)
	for _, tc := range []struct {
		pid    uint64
		owner  identity.Identity
		status product.Status
	}{
		{high, "0xa", product.InTransit},
		{7, "0xa", product.Manufactured},
		{1001, "0xb", product.InTransit},
	} {
		p, first := newProduct(tc.pid, tc.owner)
		p.CurrentStatus = tc.status
		if err := s.CreateProduct(ctx, p, first); err != nil {
			t.Fatalf("CreateProduct(%d): %v", tc.pid, err)
		}
	}

	all, err := s.ListProducts(ctx, product.ListOpts{})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	want := []uint64{7, 1001, high}
	if len(all) != len(want) {
		t.Fatalf("got %d products, want %d", len(all), len(want))
	}
	for i, pid := range want {
		if all[i].ProductID != pid {
			t.Errorf("position %d: got %d, want %d", i, all[i].ProductID, pid)
		}
	}

	inTransit := product.InTransit
	filtered, err := s.ListProducts(ctx, product.ListOpts{Owner: "0xa", Status: &inTransit})
	if err != nil {
		t.Fatalf("ListProducts (filtered): %v", err)
	}
	if len(filtered) != 1 || filtered[0].ProductID != high {
		t.Errorf("unexpected filtered result: %+v", filtered)
	}

	page, err := s.ListProducts(ctx, product.ListOpts{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListProducts (page): %v", err)
	}
	if len(page) != 1 || page[0].ProductID != 1001 {
		t.Errorf("unexpected page: %+v", page)
	}

	n, err := s.CountProducts(ctx)
	if err != nil {
		t.Fatalf("CountProducts: %v", err)
	}
	if n != 3 {
		t.Errorf("CountProducts = %d, want 3", n)
	}
}

func TestLedgerOnSQLite(t *testing.T) {
	const (
		admin        identity.Identity = "0xadmin"
		manufacturer identity.Identity = "0xm"
		distributor  identity.Identity = "0xd"
	)
	ctx := context.Background()
	as := func(who identity.Identity) context.Context { return identity.WithCaller(ctx, who) }

	l, err := provenance.New(newTestStore(t), admin,
		provenance.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })

	for _, who := range []identity.Identity{manufacturer, distributor} {
		if err := l.AuthorizeParticipant(as(admin), who); err != nil {
			t.Fatalf("AuthorizeParticipant(%s): %v", who, err)
		}
	}

	if _, err := l.RegisterProduct(as(manufacturer), 1001, "Organic Coffee", "Ethiopian Farms"); err != nil {
		t.Fatalf("RegisterProduct: %v", err)
	}
	if _, err := l.RegisterProduct(as(manufacturer), 1001, "Again", "Elsewhere"); !errors.Is(err, provenance.ErrDuplicateProduct) {
		t.Errorf("expected ErrDuplicateProduct, got %v", err)
	}
	if _, err := l.UpdateStatus(as(distributor), 1001, product.InTransit, "Warehouse A"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := l.UpdateStatus(as(distributor), 1001, product.Manufactured, "Back"); !errors.Is(err, provenance.ErrInvalidProgression) {
		t.Errorf("expected ErrInvalidProgression, got %v", err)
	}
	if _, err := l.TransferOwnership(as(manufacturer), 1001, distributor); err != nil {
		t.Fatalf("TransferOwnership: %v", err)
	}

	history, err := l.GetProductHistory(ctx, 1001)
	if err != nil {
		t.Fatalf("GetProductHistory: %v", err)
	}
	if len(history) != 2 || history[0].Location != "Ethiopian Farms" || history[1].Status != product.InTransit {
		t.Errorf("unexpected history: %+v", history)
	}
	transfers, err := l.GetOwnershipHistory(ctx, 1001)
	if err != nil {
		t.Fatalf("GetOwnershipHistory: %v", err)
	}
	if len(transfers) != 1 || transfers[0].To != distributor {
		t.Errorf("unexpected transfers: %+v", transfers)
	}
	owner, err := l.GetCurrentOwner(ctx, 1001)
	if err != nil || owner != distributor {
		t.Errorf("GetCurrentOwner = %s, %v", owner, err)
	}

	v, err := l.VerifyProduct(ctx, 9999)
	if err != nil {
		t.Fatalf("VerifyProduct: %v", err)
	}
	if v != (product.Verification{}) {
		t.Errorf("VerifyProduct(9999) = %+v", v)
	}

	if err := l.RevokeParticipant(as(admin), distributor); err != nil {
		t.Fatalf("RevokeParticipant: %v", err)
	}
	ok, err := l.IsAuthorized(ctx, distributor)
	if err != nil || ok {
		t.Errorf("IsAuthorized(distributor) = %v, %v", ok, err)
	}
	if err := l.RevokeParticipant(as(admin), admin); !errors.Is(err, provenance.ErrCannotRevokeAdmin) {
		t.Errorf("expected ErrCannotRevokeAdmin, got %v", err)
	}

	total, err := l.TotalProducts(ctx)
	if err != nil || total != 1 {
		t.Errorf("TotalProducts = %d, %v", total, err)
	}
}
