package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/roach88/rollcall/internal/store"
	"github.com/roach88/rollcall/internal/testutil"
)

// openTestLedger opens a ledger over kv with a deterministic clock and ids.
// Dates are derived in UTC.
func openTestLedger(t *testing.T, kv store.KV, opts ...Option) *Ledger {
	t.Helper()
	base := []Option{
		WithClock(testutil.NewStepClock(time.Time{}, time.Minute)),
		WithIDGenerator(testutil.NewSequentialIDs("rec")),
		WithLocation(time.UTC),
	}
	return Open(context.Background(), kv, append(base, opts...)...)
}
