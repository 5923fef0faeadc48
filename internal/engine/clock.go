package engine

import (
	"sync/atomic"

	"github.com/MintEngine/mintcraft-node/internal/model"
)

// TickClock is a logical tick counter the host advances, typically from
// a wall-clock ticker.  It stands in for block numbers: the engine only
// compares ticks for ordering.
type TickClock struct {
	now atomic.Uint64
}

// NewTickClock returns a clock starting at the given tick.
func NewTickClock(start model.Tick) *TickClock {
	c := &TickClock{}
	c.now.Store(uint64(start))
	return c
}

// Now returns the current tick.
func (c *TickClock) Now() model.Tick { return model.Tick(c.now.Load()) }

// Advance increments the tick by one and returns the new value.
func (c *TickClock) Advance() model.Tick { return model.Tick(c.now.Add(1)) }
