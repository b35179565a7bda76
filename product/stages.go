package product

import (
	"fmt"
	"strings"
)

// Status is the ordinal lifecycle stage of a product. Ordinals index into
// the configured Stages; a product only ever moves to a higher ordinal.
type Status uint8

// Ordinals of the default enumeration.
const (
	Manufactured Status = 0
	InTransit    Status = 1
	Delivered    Status = 2
)

// Stages is an ordered enumeration of stage names. The position of a name
// is its Status ordinal.
type Stages []string

// DefaultStages is the enumeration used when none is configured.
var DefaultStages = Stages{"Manufactured", "InTransit", "Delivered"}

// MinStages is the smallest enumeration a ledger accepts.
const MinStages = 3

// MaxStages bounds the enumeration to the range of Status.
const MaxStages = 256

// Max returns the terminal status.
func (s Stages) Max() Status {
	if len(s) == 0 {
		return 0
	}
	return Status(len(s) - 1)
}

// Valid reports whether st is inside the enumeration.
func (s Stages) Valid(st Status) bool {
	return int(st) < len(s)
}

// Terminal reports whether st is the last stage.
func (s Stages) Terminal(st Status) bool {
	return len(s) > 0 && st == s.Max()
}

// Name returns the stage name for st, or "Status(n)" when st is outside
// the enumeration.
func (s Stages) Name(st Status) string {
	if !s.Valid(st) {
		return fmt.Sprintf("Status(%d)", st)
	}
	return s[st]
}

// Parse looks up a stage by name, ignoring case.
func (s Stages) Parse(name string) (Status, bool) {
	name = strings.TrimSpace(name)
	for i, n := range s {
		if strings.EqualFold(n, name) {
			return Status(i), true
		}
	}
	return 0, false
}

// Clone returns a copy that does not share backing storage with s.
func (s Stages) Clone() Stages {
	out := make(Stages, len(s))
	copy(out, s)
	return out
}
