package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/types"
)

// BSON has no unsigned 64-bit integer. Product ids are kept bit for bit in
// an int64 and the high flag restores unsigned order when sorting.
func toDBProductID(v uint64) int64   { return int64(v) } //nolint:gosec // bit-preserving
func fromDBProductID(v int64) uint64 { return uint64(v) } //nolint:gosec // bit-preserving

// ==================== Participant models ====================

type participantModel struct {
	grove.BaseModel `grove:"table:provenance_participants"`

	Identity     string     `grove:"identity,pk"   bson:"_id"`
	Authorized   bool       `grove:"authorized"    bson:"authorized"`
	Admin        bool       `grove:"admin"         bson:"admin"`
	AuthorizedAt *time.Time `grove:"authorized_at" bson:"authorized_at,omitempty"`
	RevokedAt    *time.Time `grove:"revoked_at"    bson:"revoked_at,omitempty"`
	CreatedAt    time.Time  `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time  `grove:"updated_at"    bson:"updated_at"`
}

func toParticipantModel(p *participant.Participant) *participantModel {
	return &participantModel{
		Identity:     p.Identity.String(),
		Authorized:   p.Authorized,
		Admin:        p.Admin,
		AuthorizedAt: p.AuthorizedAt,
		RevokedAt:    p.RevokedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromParticipantModel(m *participantModel) *participant.Participant {
	return &participant.Participant{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		Identity:     identity.Identity(m.Identity),
		Authorized:   m.Authorized,
		Admin:        m.Admin,
		AuthorizedAt: utcPtr(m.AuthorizedAt),
		RevokedAt:    utcPtr(m.RevokedAt),
	}
}

// ==================== Product models ====================

type productModel struct {
	grove.BaseModel `grove:"table:provenance_products"`

	ProductID        int64     `grove:"product_id,pk"     bson:"_id"`
	High             bool      `grove:"high"              bson:"high"`
	ProductName      string    `grove:"product_name"      bson:"product_name"`
	ManufacturerName string    `grove:"manufacturer_name" bson:"manufacturer_name"`
	Manufacturer     string    `grove:"manufacturer"      bson:"manufacturer"`
	CurrentStatus    int32     `grove:"current_status"    bson:"current_status"`
	CurrentOwner     string    `grove:"current_owner"     bson:"current_owner"`
	HistoryCount     int       `grove:"history_count"     bson:"history_count"`
	TransferCount    int       `grove:"transfer_count"    bson:"transfer_count"`
	CreatedAt        time.Time `grove:"created_at"        bson:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"        bson:"updated_at"`
}

func toProductModel(p *product.Product) *productModel {
	return &productModel{
		ProductID:        toDBProductID(p.ProductID),
		High:             p.ProductID>>63 == 1,
		ProductName:      p.ProductName,
		ManufacturerName: p.ManufacturerName,
		Manufacturer:     p.Manufacturer.String(),
		CurrentStatus:    int32(p.CurrentStatus),
		CurrentOwner:     p.CurrentOwner.String(),
		HistoryCount:     p.HistoryCount,
		TransferCount:    p.TransferCount,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) (*product.Product, error) {
	if m.CurrentStatus < 0 || m.CurrentStatus > int32(^product.Status(0)) {
		return nil, fmt.Errorf("provenance/mongo: product %d has corrupt status %d", fromDBProductID(m.ProductID), m.CurrentStatus)
	}
	return &product.Product{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		ProductID:        fromDBProductID(m.ProductID),
		ProductName:      m.ProductName,
		ManufacturerName: m.ManufacturerName,
		Manufacturer:     identity.Identity(m.Manufacturer),
		CurrentStatus:    product.Status(m.CurrentStatus),
		CurrentOwner:     identity.Identity(m.CurrentOwner),
		HistoryCount:     m.HistoryCount,
		TransferCount:    m.TransferCount,
		Exists:           true,
	}, nil
}

// ==================== History models ====================

type historyModel struct {
	grove.BaseModel `grove:"table:provenance_history"`

	ID        string    `grove:"id,pk"      bson:"entry_id"`
	ProductID int64     `grove:"product_id" bson:"product_id"`
	Seq       int       `grove:"seq"        bson:"seq"`
	Status    int32     `grove:"status"     bson:"status"`
	Location  string    `grove:"location"   bson:"location"`
	Actor     string    `grove:"actor"      bson:"actor"`
	Timestamp time.Time `grove:"timestamp"  bson:"timestamp"`
}

func toHistoryModel(e *product.HistoryEntry) *historyModel {
	return &historyModel{
		ID:        e.ID.String(),
		ProductID: toDBProductID(e.ProductID),
		Seq:       e.Seq,
		Status:    int32(e.Status),
		Location:  e.Location,
		Actor:     e.Actor.String(),
		Timestamp: e.Timestamp,
	}
}

func fromHistoryModel(m *historyModel) (*product.HistoryEntry, error) {
	entryID, err := id.ParseHistoryID(m.ID)
	if err != nil {
		return nil, err
	}
	return &product.HistoryEntry{
		ID:        entryID,
		ProductID: fromDBProductID(m.ProductID),
		Seq:       m.Seq,
		Status:    product.Status(m.Status), //nolint:gosec // written from a Status
		Location:  m.Location,
		Actor:     identity.Identity(m.Actor),
		Timestamp: m.Timestamp.UTC(),
	}, nil
}

// ==================== Transfer models ====================

type transferModel struct {
	grove.BaseModel `grove:"table:provenance_transfers"`

	ID        string    `grove:"id,pk"      bson:"transfer_id"`
	ProductID int64     `grove:"product_id" bson:"product_id"`
	Seq       int       `grove:"seq"        bson:"seq"`
	FromOwner string    `grove:"from_owner" bson:"from_owner"`
	ToOwner   string    `grove:"to_owner"   bson:"to_owner"`
	Timestamp time.Time `grove:"timestamp"  bson:"timestamp"`
}

func toTransferModel(t *product.Transfer) *transferModel {
	return &transferModel{
		ID:        t.ID.String(),
		ProductID: toDBProductID(t.ProductID),
		Seq:       t.Seq,
		FromOwner: t.From.String(),
		ToOwner:   t.To.String(),
		Timestamp: t.Timestamp,
	}
}

func fromTransferModel(m *transferModel) (*product.Transfer, error) {
	transferID, err := id.ParseTransferID(m.ID)
	if err != nil {
		return nil, err
	}
	return &product.Transfer{
		ID:        transferID,
		ProductID: fromDBProductID(m.ProductID),
		Seq:       m.Seq,
		From:      identity.Identity(m.FromOwner),
		To:        identity.Identity(m.ToOwner),
		Timestamp: m.Timestamp.UTC(),
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
