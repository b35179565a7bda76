package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/types"
)

// Product ids are uint64 but PostgreSQL has no unsigned BIGINT. They are
// stored bit for bit as int64; ordering queries put negative values last
// so the result follows unsigned order.
func toDBProductID(v uint64) int64   { return int64(v) } //nolint:gosec // bit-preserving
func fromDBProductID(v int64) uint64 { return uint64(v) } //nolint:gosec // bit-preserving

const productOrder = "(product_id < 0) ASC, product_id ASC"

// ==================== Participant models ====================

type participantModel struct {
	grove.BaseModel `grove:"table:provenance_participants"`

	Identity     string     `grove:"identity,pk"`
	Authorized   bool       `grove:"authorized"`
	Admin        bool       `grove:"admin"`
	AuthorizedAt *time.Time `grove:"authorized_at"`
	RevokedAt    *time.Time `grove:"revoked_at"`
	CreatedAt    time.Time  `grove:"created_at"`
	UpdatedAt    time.Time  `grove:"updated_at"`
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
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Identity:     identity.Identity(m.Identity),
		Authorized:   m.Authorized,
		Admin:        m.Admin,
		AuthorizedAt: m.AuthorizedAt,
		RevokedAt:    m.RevokedAt,
	}
}

// ==================== Product models ====================

type productModel struct {
	grove.BaseModel `grove:"table:provenance_products"`

	ProductID        int64     `grove:"product_id,pk"`
	ProductName      string    `grove:"product_name"`
	ManufacturerName string    `grove:"manufacturer_name"`
	Manufacturer     string    `grove:"manufacturer"`
	CurrentStatus    int16     `grove:"current_status"`
	CurrentOwner     string    `grove:"current_owner"`
	HistoryCount     int       `grove:"history_count"`
	TransferCount    int       `grove:"transfer_count"`
	CreatedAt        time.Time `grove:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"`
}

func toProductModel(p *product.Product) *productModel {
	return &productModel{
		ProductID:        toDBProductID(p.ProductID),
		ProductName:      p.ProductName,
		ManufacturerName: p.ManufacturerName,
		Manufacturer:     p.Manufacturer.String(),
		CurrentStatus:    int16(p.CurrentStatus),
		CurrentOwner:     p.CurrentOwner.String(),
		HistoryCount:     p.HistoryCount,
		TransferCount:    p.TransferCount,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) *product.Product {
	return &product.Product{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ProductID:        fromDBProductID(m.ProductID),
		ProductName:      m.ProductName,
		ManufacturerName: m.ManufacturerName,
		Manufacturer:     identity.Identity(m.Manufacturer),
		CurrentStatus:    product.Status(m.CurrentStatus), //nolint:gosec // bounded by stage count
		CurrentOwner:     identity.Identity(m.CurrentOwner),
		HistoryCount:     m.HistoryCount,
		TransferCount:    m.TransferCount,
		Exists:           true,
	}
}

// ==================== History models ====================

type historyModel struct {
	grove.BaseModel `grove:"table:provenance_history"`

	ID        string    `grove:"id,pk"`
	ProductID int64     `grove:"product_id"`
	Seq       int       `grove:"seq"`
	Status    int16     `grove:"status"`
	Location  string    `grove:"location"`
	Actor     string    `grove:"actor"`
	Timestamp time.Time `grove:"timestamp"`
}

func toHistoryModel(e *product.HistoryEntry) *historyModel {
	return &historyModel{
		ID:        e.ID.String(),
		ProductID: toDBProductID(e.ProductID),
		Seq:       e.Seq,
		Status:    int16(e.Status),
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
		Status:    product.Status(m.Status), //nolint:gosec // bounded by stage count
		Location:  m.Location,
		Actor:     identity.Identity(m.Actor),
		Timestamp: m.Timestamp,
	}, nil
}

// ==================== Transfer models ====================

type transferModel struct {
	grove.BaseModel `grove:"table:provenance_transfers"`

	ID        string    `grove:"id,pk"`
	ProductID int64     `grove:"product_id"`
	Seq       int       `grove:"seq"`
	FromOwner string    `grove:"from_owner"`
	ToOwner   string    `grove:"to_owner"`
	Timestamp time.Time `grove:"timestamp"`
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
		Timestamp: m.Timestamp,
	}, nil
}
