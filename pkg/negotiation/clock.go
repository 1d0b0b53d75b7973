package negotiation

import (
	"math"
	"sync"
)

// Clock reports normalised negotiation time: 0 at the start, 1 at the
// deadline. Readings never decrease within a session.
type Clock interface {
	Time() float64
}

// FixedClock always reports the same time.
type FixedClock float64

// Time returns the fixed reading.
func (c FixedClock) Time() float64 { return float64(c) }

// RoundClock measures time in host-advanced rounds.
type RoundClock struct {
	round    int
	deadline int
}

// NewRoundClock creates a clock that reaches 1 after deadline rounds.
func NewRoundClock(deadline int) *RoundClock {
	if deadline < 1 {
		deadline = 1
	}
	return &RoundClock{deadline: deadline}
}

// Advance moves the clock one round forward.
func (c *RoundClock) Advance() { c.round++ }

// Round returns the current round number.
func (c *RoundClock) Round() int { return c.round }

// Expired reports whether the deadline has been reached.
func (c *RoundClock) Expired() bool { return c.round >= c.deadline }

// Time returns round/deadline clamped to [0,1].
func (c *RoundClock) Time() float64 {
	return math.Min(1, float64(c.round)/float64(c.deadline))
}

// HostClock holds the latest time pushed by a remote host. Updates that
// would move time backwards are ignored.
type HostClock struct {
	mu sync.Mutex
	t  float64
}

// Set records a host time reading.
func (c *HostClock) Set(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t = math.Max(0, math.Min(1, t))
	if t > c.t {
		c.t = t
	}
}

// Time returns the latest reading.
func (c *HostClock) Time() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}
