// Package store provides durable key-value storage for rollcall.
//
// The store plays the role a browser's local storage plays for a single-page
// app: a handful of string keys, each holding a JSON blob that the owning
// component reads whole and rewrites whole.
//
// # Keys
//
//   - KeyAttendanceLog: JSON array of attendance records, newest first
//   - KeyRegisteredUsers: JSON array of user directory entries
//   - KeyAuth: JSON object for the logged-in identity
//
// # Semantics
//
// Writes are whole-value upserts. Two processes writing the same key race and
// the last write wins; nothing coordinates across processes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Memory implements the same KV contract without a database and is what the
// harness and most unit tests run against.
package store
