package postgres

import (
	"math"
	"testing"
	"time"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/types"
)

func TestProductIDBitPreserving(t *testing.T) {
	for _, v := range []uint64{0, 1, 1001, math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64} {
		if got := fromDBProductID(toDBProductID(v)); got != v {
			t.Errorf("round trip of %d gave %d", v, got)
		}
	}
	if toDBProductID(math.MaxUint64) >= 0 {
		t.Error("ids above MaxInt64 should map to negative values")
	}
}

func TestProductModelConversion(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	p := &product.Product{
		Entity:           types.NewEntityAt(at),
		ProductID:        math.MaxUint64,
		ProductName:      "Organic Coffee",
		ManufacturerName: "Ethiopian Farms",
		Manufacturer:     "0xm",
		CurrentStatus:    product.Delivered,
		CurrentOwner:     "0xr",
		HistoryCount:     3,
		TransferCount:    2,
		Exists:           true,
	}

	got := fromProductModel(toProductModel(p))
	if *got != *p {
		t.Errorf("conversion changed product:\n got %+v\nwant %+v", got, p)
	}
}

func TestHistoryAndTransferModelConversion(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	e := &product.HistoryEntry{
		ID:        id.NewHistoryID(),
		ProductID: 7,
		Seq:       2,
		Status:    product.InTransit,
		Location:  "Warehouse A",
		Actor:     "0xd",
		Timestamp: at,
	}
	gotE, err := fromHistoryModel(toHistoryModel(e))
	if err != nil {
		t.Fatalf("fromHistoryModel: %v", err)
	}
	if gotE.ID.String() != e.ID.String() || gotE.ProductID != e.ProductID || gotE.Seq != e.Seq ||
		gotE.Status != e.Status || gotE.Location != e.Location || gotE.Actor != e.Actor ||
		!gotE.Timestamp.Equal(e.Timestamp) {
		t.Errorf("history conversion: got %+v want %+v", gotE, e)
	}

	tr := &product.Transfer{
		ID:        id.NewTransferID(),
		ProductID: 7,
		Seq:       1,
		From:      "0xm",
		To:        "0xd",
		Timestamp: at,
	}
	gotT, err := fromTransferModel(toTransferModel(tr))
	if err != nil {
		t.Fatalf("fromTransferModel: %v", err)
	}
	if gotT.ID.String() != tr.ID.String() || gotT.ProductID != tr.ProductID || gotT.Seq != tr.Seq ||
		gotT.From != tr.From || gotT.To != tr.To || !gotT.Timestamp.Equal(tr.Timestamp) {
		t.Errorf("transfer conversion: got %+v want %+v", gotT, tr)
	}

	bad := toHistoryModel(e)
	bad.ID = id.NewTransferID().String()
	if _, err := fromHistoryModel(bad); err == nil {
		t.Error("expected prefix mismatch error")
	}
}

func TestParticipantModelConversion(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	p := &participant.Participant{Entity: types.NewEntityAt(at), Identity: "0xm"}
	p.Authorize(at)

	got := fromParticipantModel(toParticipantModel(p))
	if got.Identity != p.Identity || !got.Authorized || got.AuthorizedAt == nil || !got.AuthorizedAt.Equal(at) {
		t.Errorf("unexpected participant %+v", got)
	}
	if got.RevokedAt != nil {
		t.Error("RevokedAt should stay nil")
	}
}
