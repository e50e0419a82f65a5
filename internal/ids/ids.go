// Package ids generates identifiers for stored records. Domain records use
// ULIDs so prefix scans come back roughly creation-ordered; subjects use
// random UUIDs so account ids carry no timing information.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier suitable for storage keys.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewSubject returns a random UUID for a credential record.
func NewSubject() string {
	return uuid.NewString()
}
