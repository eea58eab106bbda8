package effect

import (
	"fmt"
	"time"

	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
)

// SweepMode selects the bring-up pattern Sweep draws.
type SweepMode string

const (
	// IndexSweep walks a single white LED from the first index to the last.
	IndexSweep SweepMode = "index_sweep"
	// RGBChannels lights the whole strip red, then green, then blue.
	RGBChannels SweepMode = "rgb_channels"
)

// DefaultSweepStep is used when no step duration is configured.
const DefaultSweepStep = 250 * time.Millisecond

// Sweep is a wiring self-test: it makes LED order and channel order visible.
type Sweep struct {
	mode SweepMode
	step time.Duration
	acc  time.Duration
	pos  int
}

func NewSweep(mode SweepMode, step time.Duration) (*Sweep, error) {
	if mode == "" {
		mode = IndexSweep
	}
	if mode != IndexSweep && mode != RGBChannels {
		return nil, fmt.Errorf("%w: unknown sweep mode %q", ErrConfiguration, mode)
	}
	if step <= 0 {
		step = DefaultSweepStep
	}
	return &Sweep{mode: mode, step: step}, nil
}

func (s *Sweep) Name() string { return "sweep" }

func (s *Sweep) Tick(seg *led.Segment, elapsed time.Duration) error {
	s.acc += elapsed
	for s.acc >= s.step {
		s.acc -= s.step
		s.pos++
	}

	seg.TurnOff()
	n := seg.Len()
	if n == 0 {
		return nil
	}
	switch s.mode {
	case IndexSweep:
		s.pos %= n
		seg.Set(s.pos, led.White())
	case RGBChannels:
		s.pos %= 3
		seg.SetAll([3]led.Color{led.RGB(255, 0, 0), led.RGB(0, 255, 0), led.RGB(0, 0, 255)}[s.pos])
	default:
		return fmt.Errorf("%w: sweep mode %q", ErrRender, s.mode)
	}
	return nil
}
