// Package harness runs ledger scenarios written in YAML.
//
// A scenario is a sequence of marks and session resets followed by
// assertions on the resulting log. Each run uses a fresh in-memory store,
// a step clock and sequential record ids, so its trace and CSV are
// byte-for-byte reproducible and can be compared against golden files.
//
// # Scenario Format
//
//	name: bob_across_sessions
//	description: "A student can be marked once per session"
//	timezone: UTC            # optional, zone used for record dates
//	steps:
//	  - mark: Bob
//	    expect: success      # success | duplicate | invalid
//	  - mark: Bob
//	    expect: duplicate
//	  - new_session: true
//	  - mark: Bob
//	assertions:
//	  - type: records
//	    count: 2
//	  - type: records_for
//	    name: bob
//	    count: 2
//
// # Assertion Types
//
//   - records: total number of records in the log
//   - session_count: names marked in the current session
//   - csv_lines: lines of the CSV projection (0 when the log is empty)
//   - records_for: records matching a name ignoring case
//   - first_name: name of the newest record
package harness
