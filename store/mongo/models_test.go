package mongo

import (
	"math"
	"testing"
	"time"

	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/types"
)

func TestProductModelHighFlag(t *testing.T) {
	tests := []struct {
		id   uint64
		high bool
	}{
		{1, false},
		{math.MaxInt64, false},
		{math.MaxInt64 + 1, true},
		{math.MaxUint64, true},
	}

	for _, tt := range tests {
		m := toProductModel(&product.Product{ProductID: tt.id})
		if m.High != tt.high {
			t.Errorf("id %d: high = %v, want %v", tt.id, m.High, tt.high)
		}
		p, err := fromProductModel(m)
		if err != nil {
			t.Fatalf("fromProductModel: %v", err)
		}
		if p.ProductID != tt.id || !p.Exists {
			t.Errorf("id %d came back as %d (exists=%v)", tt.id, p.ProductID, p.Exists)
		}
	}
}

func TestProductModelCorruptStatus(t *testing.T) {
	m := toProductModel(&product.Product{ProductID: 5, Entity: types.NewEntityAt(time.Now())})
	m.CurrentStatus = 300
	if _, err := fromProductModel(m); err == nil {
		t.Error("expected an error for a status outside the Status range")
	}
	m.CurrentStatus = -1
	if _, err := fromProductModel(m); err == nil {
		t.Error("expected an error for a negative status")
	}
}

func TestParticipantTimestampsNormalized(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2025, 3, 4, 7, 6, 7, 0, loc)

	m := &participantModel{Identity: "0xm", Authorized: true, AuthorizedAt: &at, CreatedAt: at, UpdatedAt: at}
	p := fromParticipantModel(m)
	if p.CreatedAt.Location() != time.UTC || p.AuthorizedAt.Location() != time.UTC {
		t.Error("timestamps should come back in UTC")
	}
	if !p.AuthorizedAt.Equal(at) {
		t.Errorf("AuthorizedAt = %v, want %v", p.AuthorizedAt, at)
	}
}
