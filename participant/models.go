package participant

import (
	"time"

	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/types"
)

// Participant is an identity that may interact with the ledger once
// authorized. The admin is authorized at creation and stays authorized.
type Participant struct {
	types.Entity
	Identity     identity.Identity `json:"identity"`
	Authorized   bool              `json:"authorized"`
	Admin        bool              `json:"admin"`
	AuthorizedAt *time.Time        `json:"authorized_at,omitempty"`
	RevokedAt    *time.Time        `json:"revoked_at,omitempty"`
}

// Authorize marks the participant authorized at t.
func (p *Participant) Authorize(t time.Time) {
	p.Authorized = true
	p.AuthorizedAt = &t
	p.RevokedAt = nil
	p.UpdatedAt = t
}

// Revoke clears the authorization at t. Admins are never revoked; callers
// must check Admin first.
func (p *Participant) Revoke(t time.Time) {
	p.Authorized = false
	p.RevokedAt = &t
	p.UpdatedAt = t
}
