// Package harness runs analysis scenarios as executable contract tests.
//
// A scenario names a rule corpus, a set of screens and the findings the
// pipeline is expected to produce for them.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: login_without_error_screen
//	description: "A login form with no error variant is reported"
//	corpus: builtin            # path to a corpus, or an inline document
//	screens: login.json        # path to a screens file, or an inline list
//	flow_types:                # optional, skips flow type detection
//	  - {prefix: login, flow_type: authentication}
//	assertions:
//	  - type: finding_present
//	    category: error
//	    screen: Login
//	  - type: missing_screen
//	    flow_type: authentication
//	    expected_screen: forgot-password
//
// Paths are resolved relative to the scenario file. Unknown fields are
// rejected so a misspelt assertion never passes silently.
//
// # Assertion Types
//
//   - finding_count: exactly count findings match the filters
//   - finding_present: at least one finding matches the filters
//   - no_findings: no finding matches the filters
//   - missing_screen: the expected screen is reported missing
//   - missing_screen_count: exactly count missing screens (per flow_type)
//   - pattern_detected: the screen carries at least min patterns of a type
//   - flow_detected: a group was assigned the flow type
//   - warning_count: exactly count run warnings
//
// Finding filters are rule (exact), category (case-insensitive substring),
// screen (screen ID or name) and severity.
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run ID and an in-memory SQLite store, so
// reports are reproducible and can be compared against golden snapshots:
//
//	go test ./internal/harness -update
package harness
