package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the instant a record is created.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies record ids. Ids must be unique for the lifetime of
// a store.
type IDGenerator interface {
	NewID() string
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// UUIDGenerator generates time-sortable UUIDv7 record ids.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// NewID creates a new UUIDv7 as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDGenerator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
