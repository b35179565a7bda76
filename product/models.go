package product

import (
	"time"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/types"
)

// Product is one tracked physical item. ProductID, ProductName and
// ManufacturerName never change after registration.
type Product struct {
	types.Entity
	ProductID        uint64            `json:"product_id"`
	ProductName      string            `json:"product_name"`
	ManufacturerName string            `json:"manufacturer_name"`
	Manufacturer     identity.Identity `json:"manufacturer"`
	CurrentStatus    Status            `json:"current_status"`
	CurrentOwner     identity.Identity `json:"current_owner"`
	HistoryCount     int               `json:"history_count"`
	TransferCount    int               `json:"transfer_count"`
	Exists           bool              `json:"exists"`
}

// HistoryEntry records one status change. Seq starts at 1 with the
// registration entry.
type HistoryEntry struct {
	ID        id.HistoryID      `json:"id"`
	ProductID uint64            `json:"product_id"`
	Seq       int               `json:"seq"`
	Status    Status            `json:"status"`
	Location  string            `json:"location"`
	Actor     identity.Identity `json:"actor"`
	Timestamp time.Time         `json:"timestamp"`
}

// Transfer records one change of ownership. Seq starts at 1.
type Transfer struct {
	ID        id.TransferID     `json:"id"`
	ProductID uint64            `json:"product_id"`
	Seq       int               `json:"seq"`
	From      identity.Identity `json:"from"`
	To        identity.Identity `json:"to"`
	Timestamp time.Time         `json:"timestamp"`
}

// Verification is the public proof-of-registration answer for a product id.
// Unknown ids yield the zero value.
type Verification struct {
	Exists      bool   `json:"exists"`
	ProductName string `json:"product_name"`
	Status      Status `json:"status"`
}
