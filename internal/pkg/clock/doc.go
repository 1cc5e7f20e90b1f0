// Package clock lets expiry logic read time through an interface so tests
// can move it by hand.
package clock
