// Package engine matches rule triggers against the patterns detected on a
// screen.
//
// A rule fires when any clause of its any_of trigger is satisfied. The engine
// returns one TriggeredRule per (rule, triggering pattern) pair, so a rule
// can fire several times on one screen, and twice on one element that
// carries two matching patterns. Later stages need to know which button or
// list each hit refers to. A pattern matched by two clauses of the same rule
// still yields one hit, credited to the first clause.
//
// DETERMINISM:
// Rules are evaluated in declaration order, and each rule's hits follow the
// order of the detected patterns. The same patterns and rules always yield
// the same TriggeredRule sequence.
//
// RESILIENCE:
// Rules are author-supplied. A clause with a malformed regex is compiled out
// when the Matcher is built and reported through Warnings; the rule's other
// clauses keep working and matching never fails.
package engine
