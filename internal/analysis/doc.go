// Package analysis runs the edge-case pipeline over a set of screens.
//
// One run is:
//
//	screens -> flow groups -> per screen: detect -> match -> check -> findings
//	                       -> flow types -> missing-screen findings
//
// Per-screen work only reads the shared flow groups, so its outcome does not
// depend on screen order beyond the order findings are numbered in. Finding
// and missing-screen counters are reset at the start of every run; two runs
// over the same screens and corpus produce identical reports apart from the
// run ID.
package analysis
