//go:build !debug

// Package assert provides development-time invariant checks.
//
// Checks are compiled in with -tags debug and panic on failure. Release
// builds compile them to no-ops so real-time code degrades to its
// documented fallback instead of aborting.
package assert

// Enabled reports whether assertions are compiled in.
const Enabled = false

// That panics with msg when cond is false in debug builds.
func That(cond bool, msg string) {}
