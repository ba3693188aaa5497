// Package clock abstracts wall time so date-sensitive logic (season
// selection, scheduling cadence, publish-due checks) can be tested by
// advancing a fake instead of sleeping.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System reads the real wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fake is a manually advanced clock for tests.
type Fake struct {
	Current time.Time
}

// NewFake returns a Fake pinned to t.
func NewFake(t time.Time) *Fake {
	return &Fake{Current: t}
}

func (f *Fake) Now() time.Time { return f.Current }

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}

// AdvanceDays moves the fake clock forward by n calendar days.
func (f *Fake) AdvanceDays(n int) {
	f.Current = f.Current.AddDate(0, 0, n)
}
