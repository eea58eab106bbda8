// Package effect contains the animations that rewrite a led.Segment once per cycle.
package effect

import (
	"errors"
	"time"

	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
)

var (
	// ErrRender reports unrecoverable internal corruption inside an effect.
	// Out-of-range pixel writes are not errors; the segment drops them.
	ErrRender = errors.New("effect render failed")
	// ErrConfiguration reports parameters an effect cannot run with.
	ErrConfiguration = errors.New("effect misconfigured")
)

// Effect advances its own animation state and writes colors into seg.
// elapsed is the wall-clock time since the previous cycle, measured once by the caller.
type Effect interface {
	Name() string
	Tick(seg *led.Segment, elapsed time.Duration) error
}

// Rand is the random source effects draw from. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// DurationRange is an inclusive range sampled with millisecond resolution.
type DurationRange struct {
	Min, Max time.Duration
}

func (r DurationRange) Sample(rnd Rand) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	steps := int((r.Max - r.Min) / time.Millisecond)
	return r.Min + time.Duration(rnd.Intn(steps+1))*time.Millisecond
}

func saturatingSub(d, elapsed time.Duration) time.Duration {
	if elapsed >= d {
		return 0
	}
	return d - elapsed
}
