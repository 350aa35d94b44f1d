package service

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// MonotonicClock never returns the same instant twice. Readings are UTC, truncated to
// microseconds so they survive a round trip through postgres unchanged.
type MonotonicClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{now: time.Now}
}

func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
