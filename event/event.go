// Package event defines the notification records a ledger emits after
// each committed mutation.
package event

import (
	"time"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/product"
)

// Type names the kind of mutation an event reports.
type Type string

const (
	TypeParticipantAuthorized Type = "participant.authorized"
	TypeParticipantRevoked    Type = "participant.revoked"
	TypeProductRegistered     Type = "product.registered"
	TypeStatusUpdated         Type = "product.status_updated"
	TypeOwnershipTransferred  Type = "product.ownership_transferred"
)

// Arg keys used in Event.Args.
const (
	ArgParticipant  = "participant"
	ArgProductID    = "productId"
	ArgProductName  = "productName"
	ArgManufacturer = "manufacturer"
	ArgStatus       = "status"
	ArgLocation     = "location"
	ArgUpdatedBy    = "updatedBy"
	ArgFrom         = "from"
	ArgTo           = "to"
	ArgTimestamp    = "timestamp"
)

// Event is one notification record. ProductID is zero for participant
// events.
type Event struct {
	ID        id.EventID        `json:"id"`
	Type      Type              `json:"type"`
	ProductID uint64            `json:"product_id,omitempty"`
	Actor     identity.Identity `json:"actor"`
	Args      map[string]any    `json:"args"`
	Timestamp time.Time         `json:"timestamp"`
}

func newEvent(t Type, productID uint64, ts time.Time, args map[string]any) *Event {
	args[ArgTimestamp] = ts
	return &Event{
		ID:        id.NewEventID(),
		Type:      t,
		ProductID: productID,
		Args:      args,
		Timestamp: ts,
	}
}

// ParticipantAuthorized reports that target became authorized.
func ParticipantAuthorized(target identity.Identity, ts time.Time) *Event {
	return newEvent(TypeParticipantAuthorized, 0, ts, map[string]any{
		ArgParticipant: target,
	})
}

// ParticipantRevoked reports that target lost its authorization.
func ParticipantRevoked(target identity.Identity, ts time.Time) *Event {
	return newEvent(TypeParticipantRevoked, 0, ts, map[string]any{
		ArgParticipant: target,
	})
}

// ProductRegistered reports a new product registered by caller.
func ProductRegistered(productID uint64, name string, caller identity.Identity, ts time.Time) *Event {
	e := newEvent(TypeProductRegistered, productID, ts, map[string]any{
		ArgProductID:    productID,
		ArgProductName:  name,
		ArgManufacturer: caller,
	})
	e.Actor = caller
	return e
}

// StatusUpdated reports a forward status change made by caller.
func StatusUpdated(productID uint64, status product.Status, location string, ts time.Time, caller identity.Identity) *Event {
	e := newEvent(TypeStatusUpdated, productID, ts, map[string]any{
		ArgProductID: productID,
		ArgStatus:    status,
		ArgLocation:  location,
		ArgUpdatedBy: caller,
	})
	e.Actor = caller
	return e
}

// OwnershipTransferred reports a change of owner from one participant to another.
func OwnershipTransferred(productID uint64, from, to identity.Identity, ts time.Time) *Event {
	e := newEvent(TypeOwnershipTransferred, productID, ts, map[string]any{
		ArgProductID: productID,
		ArgFrom:      from,
		ArgTo:        to,
	})
	e.Actor = from
	return e
}

// Identity returns the identity stored under key, if any.
func (e *Event) Identity(key string) identity.Identity {
	v, _ := e.Args[key].(identity.Identity) //nolint:errcheck // zero value on mismatch
	return v
}
