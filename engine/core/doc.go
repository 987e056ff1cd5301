// Package core provides the numeric helpers, lock-free scalar types and
// play configuration shared by the engine packages.
package core
