// Package flow groups screens into flows by name prefix and reports the
// screens a complete flow of a known type is missing.
//
// Grouping is a name heuristic, not a semantic classifier: "Login",
// "Login - Error" and "Login / Loading" share the prefix "login", while
// screens with no shared stem never group even when related.
package flow
