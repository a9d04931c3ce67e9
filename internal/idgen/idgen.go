// Package idgen generates opaque identifiers for events, ledger entries,
// and audit records. IDs are lexicographically sortable-ish by creation
// time to keep the ingested_at/event_id tie-break in the projection
// engine's ordering (spec §4.2 step 3) deterministic and cheap to compare.
package idgen

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event generates a fresh event_id of the form "evt-<hex time>-<uuid4>".
func Event() string {
	return fmt.Sprintf("evt-%s-%s", hexNow(), uuid.New().String())
}

// Ledger generates a fresh ledger_id of the form "led-<hex time>-<uuid4>".
func Ledger() string {
	return fmt.Sprintf("led-%s-%s", hexNow(), uuid.New().String())
}

// Audit generates a fresh audit entry id of the form "aud-<hex time>-<uuid4>".
func Audit() string {
	return fmt.Sprintf("aud-%s-%s", hexNow(), uuid.New().String())
}

func hexNow() string {
	var b [8]byte
	now := uint64(time.Now().UTC().UnixNano())
	for i := 0; i < 8; i++ {
		b[7-i] = byte(now >> (8 * i))
	}
	return hex.EncodeToString(b[:])
}
