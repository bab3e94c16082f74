package pack

import (
	"encoding/hex"
	"fmt"
)

// Outcome is the outcome of a hash update.
type Outcome uint8

const (
	// Updated means the pack was downloaded and its hash stored.
	Updated Outcome = iota
	// Disabled means no pack is configured; the hash was cleared.
	Disabled
	// Failed means the hash could not be computed; prior state is kept.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case Disabled:
		return "disabled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// Result is the result of Manager.UpdateHash.
type Result struct {
	Outcome Outcome
	URL     string // The URL that was hashed, empty if Disabled.
	Hash    []byte // The new hash if Updated.
	Err     error  // The cause if Failed.
}

// HashString returns the hex encoded hash.
func (r Result) HashString() string { return hex.EncodeToString(r.Hash) }
