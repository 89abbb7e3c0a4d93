// Package ir provides the data model shared by every stage of the edgy
// analysis pipeline.
//
// This package contains type definitions and a few pure helpers only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Screens and their element trees are read-only once decoded
//   - Rules and flow rules are read-only once compiled
//   - All JSON tags use snake_case
//   - Identifiers are assigned from explicit counters, never package state
package ir
