package ramp

import (
	"context"
	"time"

	"bham-go/x/mathx"
)

// Set receives the next level in [0..top].
type Set func(level uint16)

// Wait blocks for d and reports whether to continue (false => cancelled).
type Wait func(d time.Duration) bool

// Linear walks a level from cur to to in steps equal increments spread over
// durationMs, calling set after each wait. Integer only: the remainder of
// each increment is carried in an accumulator so the last step lands on to.
// steps==0 or durationMs==0 snaps to 'to'. It reports whether the ramp ran
// to completion.
func Linear(cur, to, top uint16, durationMs uint32, steps uint16, wait Wait, set Set) bool {
	to = mathx.Min(to, top)
	if steps == 0 || durationMs == 0 {
		set(to)
		return true
	}
	delta := int32(to) - int32(cur)
	st := int32(steps)
	acc := int32(0)
	lvl := int32(cur)

	stepDur := time.Duration(mathx.CeilDiv(durationMs, uint32(steps))) * time.Millisecond

	for i := uint16(1); i < steps; i++ {
		if !wait(stepDur) {
			return false
		}
		acc += delta
		inc := acc / st
		if inc != 0 {
			acc -= inc * st
			lvl = mathx.Clamp(lvl+inc, 0, int32(top))
			set(uint16(lvl))
		}
	}
	if !wait(stepDur) {
		return false
	}
	set(to)
	return true
}

// SleepCtx returns a Wait that sleeps on a timer and gives up when ctx ends.
func SleepCtx(ctx context.Context) Wait {
	return func(d time.Duration) bool {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
			return true
		}
	}
}
