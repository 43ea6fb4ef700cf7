// Package clock abstracts the current time so expiry and audit timestamps
// can be pinned in tests.
package clock

import (
	"sync"
	"time"
)

// Clocker returns the current instant.
type Clocker interface {
	Now() time.Time
}

type system struct{}

// New returns the wall clock. Instants are in UTC.
func New() Clocker {
	return system{}
}

func (system) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clocker that only moves when told to.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
