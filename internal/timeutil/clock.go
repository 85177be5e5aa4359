// Package timeutil abstracts the wall clock so playback timing can be
// driven deterministically in tests.
package timeutil

import (
	"sync"
	"time"
)

// Clock is the time source used by the replay loop. It is the minimal
// surface the player needs: a monotonic now, elapsed-time measurement,
// and a best-effort sleep.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration elapsed since t.
	Since(t time.Time) time.Duration

	// Sleep pauses the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// RealClock implements Clock with the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// Sleep pauses for at least d.
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// FakeClock is a manually controlled Clock for tests. Unlike a real
// clock, Sleep advances the fake time by the requested duration and
// returns immediately, so a polling loop built on it runs to completion
// without real delays.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
	slept  time.Duration
}

// NewFakeClock returns a FakeClock set to the given time.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since returns the fake duration elapsed since t.
func (c *FakeClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Sleep advances the fake time by d and records the call.
func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps++
	c.slept += d
}

// Advance moves the fake time forward by d without counting as a sleep.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Sleeps returns the number of Sleep calls observed.
func (c *FakeClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}

// Slept returns the total duration passed to Sleep.
func (c *FakeClock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept
}
