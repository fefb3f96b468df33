package testutil

import (
	"sync"
	"time"
)

// DefaultStart is the first instant a StepClock returns unless told otherwise.
var DefaultStart = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// StepClock is a deterministic wall clock for tests.
//
// Each call to Now returns the previous instant advanced by Step, so a
// sequence of marks gets strictly increasing timestamps without sleeping.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewStepClock creates a clock whose first Now() is start.
// A zero start means DefaultStart; a zero step means one minute.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	if start.IsZero() {
		start = DefaultStart
	}
	if step == 0 {
		step = time.Minute
	}
	return &StepClock{next: start, step: step}
}

// Now returns the current instant and advances the clock by one step.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

// Peek returns the instant the next Now() will return.
func (c *StepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Set moves the clock so the next Now() returns t.
func (c *StepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = t
}
