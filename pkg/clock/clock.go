// Package clock abstracts wall time so services that reason about assignment
// and membership dates can be tested against a fixed instant.
package clock

import "time"

// Clock provides the current instant and the current calendar date.
type Clock interface {
	Now() time.Time
	// Today returns the current date truncated to midnight UTC.
	Today() time.Time
}

type wallClock struct{}

// New returns a Clock backed by the system time.
func New() Clock {
	return wallClock{}
}

func (wallClock) Now() time.Time {
	return time.Now().UTC()
}

func (wallClock) Today() time.Time {
	return Midnight(time.Now().UTC())
}

// Fixed is a Clock pinned to one instant, for tests.
type Fixed struct {
	Instant time.Time
}

// NewFixed returns a Clock that always reports the given instant.
func NewFixed(instant time.Time) Fixed {
	return Fixed{Instant: instant.UTC()}
}

func (f Fixed) Now() time.Time {
	return f.Instant
}

func (f Fixed) Today() time.Time {
	return Midnight(f.Instant)
}

// Midnight truncates t to the start of its UTC day.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
