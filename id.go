package provenance

import "github.com/xraph/provenance/id"

// ID is the identifier type for history entries, transfers, and events.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
