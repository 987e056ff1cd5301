//go:build debug

package assert

// Enabled reports whether assertions are compiled in.
const Enabled = true

// That panics with msg when cond is false in debug builds.
func That(cond bool, msg string) {
	if !cond {
		panic("assertion failed: " + msg)
	}
}
