package participant

import (
	"context"

	"github.com/xraph/provenance/identity"
)

// Store persists participant records. SaveParticipant upserts by identity.
type Store interface {
	GetParticipant(ctx context.Context, who identity.Identity) (*Participant, error)
	SaveParticipant(ctx context.Context, p *Participant) error
	ListParticipants(ctx context.Context, opts ListOpts) ([]*Participant, error)
}

// ListOpts filters ListParticipants. Results are ordered by creation time.
type ListOpts struct {
	AuthorizedOnly bool
	Limit          int
	Offset         int
}
