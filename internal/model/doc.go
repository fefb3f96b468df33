// Package model provides the shared record types for rollcall.
//
// This package contains type definitions only. All other internal packages
// import model; model imports nothing internal.
//
// Key design constraints:
//   - Records are immutable once created; nothing in the tree mutates a stored record
//   - JSON tags use camelCase so persisted blobs keep the layout of the
//     "attendanceLog", "registeredUsers" and "auth" keys
//   - Timestamps are stored as strings (RFC 3339, UTC, millisecond precision)
package model
