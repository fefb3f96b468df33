// Package ledger implements the session-scoped attendance ledger.
//
// A Ledger composes two parts it exclusively owns:
//
//   - RecordStore: the append-only, newest-first log of attendance records,
//     persisted whole under store.KeyAttendanceLog after every append
//   - SessionGuard: the set of names already marked in the current session
//
// # Invariants
//
//   - Records are never mutated or removed once appended
//   - A name is marked at most once per session; the check is an exact
//     string match on the name as given (no trimming, no case folding)
//   - Per-identity lookups are case-insensitive
//   - StartNewSession clears the guard only; history is kept
//
// The session set is never persisted. Opening a ledger starts a new session.
//
// # Failure handling
//
// Every operation is total. Duplicate and empty-name marks are reported in
// the returned result. A storage fault during append is logged and the
// in-memory log stays authoritative for the running process; corrupt
// persisted data is replaced by an empty log on load.
//
// Thread-safety: a Ledger is not safe for concurrent use. One goroutine owns
// it (see internal/kiosk).
package ledger
