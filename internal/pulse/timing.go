// Package pulse turns pixel colors into the two-phase pulse train of single-wire
// addressable LEDs (WS2811 family).
package pulse

import (
	"fmt"
	"math"
	"strings"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Timing is the bit timing of one LED protocol.
type Timing struct {
	Name string
	// High and low phase of a "zero" and a "one" bit.
	T0H, T0L time.Duration
	T1H, T1L time.Duration
	// Reset is the minimum low period that latches a frame.
	Reset time.Duration
	// Tolerance is the allowed deviation of each bit phase.
	Tolerance time.Duration
}

// WS2811 timings from the WS2811 datasheet, with 10us of margin on the reset.
var WS2811 = Timing{
	Name:      "ws2811",
	T0H:       500 * time.Nanosecond,
	T0L:       2000 * time.Nanosecond,
	T1H:       1200 * time.Nanosecond,
	T1L:       1300 * time.Nanosecond,
	Reset:     60 * time.Microsecond,
	Tolerance: 150 * time.Nanosecond,
}

var WS2812 = Timing{
	Name:      "ws2812",
	T0H:       400 * time.Nanosecond,
	T0L:       850 * time.Nanosecond,
	T1H:       800 * time.Nanosecond,
	T1L:       450 * time.Nanosecond,
	Reset:     60 * time.Microsecond,
	Tolerance: 150 * time.Nanosecond,
}

func TimingByName(name string) (Timing, error) {
	switch strings.ToLower(name) {
	case "", "ws2811":
		return WS2811, nil
	case "ws2812", "ws2812b":
		return WS2812, nil
	}
	return Timing{}, fmt.Errorf("%w: unknown protocol %q", ErrTiming, name)
}

// Level is the electrical level of a pulse.
type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// MaxTicks is the largest duration a single pulse can carry, in clock ticks.
const MaxTicks = 1<<15 - 1

// Pulse is one constant-level interval measured in ticks of the transmit clock.
type Pulse struct {
	Level Level
	Ticks uint16
}

// Duration converts the pulse length back to time at the given clock rate.
func (p Pulse) Duration(clock physic.Frequency) time.Duration {
	if clock <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(p.Ticks) * float64(time.Second) / hertz(clock)))
}

// Symbol is a two-phase pulse pattern: one encoded bit or the frame reset.
type Symbol [2]Pulse

// Ticks is the total length of the symbol in clock ticks.
func (s Symbol) Ticks() int { return int(s[0].Ticks) + int(s[1].Ticks) }

func hertz(f physic.Frequency) float64 {
	return float64(f) / float64(physic.Hertz)
}

type rounding func(float64) float64

// ticksFor converts d into clock ticks, failing when the result cannot be represented.
func ticksFor(clock physic.Frequency, d time.Duration, round rounding) (uint16, error) {
	n := round(d.Seconds() * hertz(clock))
	if n < 1 {
		return 0, fmt.Errorf("%w: %v is shorter than one tick at %s", ErrTiming, d, clock)
	}
	if n > MaxTicks {
		return 0, fmt.Errorf("%w: %v needs %.0f ticks at %s, max %d", ErrTiming, d, n, clock, MaxTicks)
	}
	return uint16(n), nil
}

// phase builds a pulse of d at level l and checks it lands inside tol.
func phase(clock physic.Frequency, l Level, d, tol time.Duration) (Pulse, error) {
	n, err := ticksFor(clock, d, math.Round)
	if err != nil {
		return Pulse{}, err
	}
	p := Pulse{Level: l, Ticks: n}
	if got := p.Duration(clock); absDuration(got-d) > tol {
		return Pulse{}, fmt.Errorf("%w: %v rounds to %v at %s, outside ±%v", ErrTiming, d, got, clock, tol)
	}
	return p, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Tables are the pulse patterns of one timing at one clock rate.
type Tables struct {
	Clock  physic.Frequency
	Timing Timing
	One    Symbol
	Zero   Symbol
	Reset  Symbol
}

// NewTables computes the bit and reset patterns for t at clock.
func NewTables(clock physic.Frequency, t Timing) (*Tables, error) {
	if clock <= 0 {
		return nil, fmt.Errorf("%w: clock rate %d", ErrTiming, clock)
	}
	tb := &Tables{Clock: clock, Timing: t}
	var err error
	mk := func(l Level, d time.Duration) Pulse {
		if err != nil {
			return Pulse{}
		}
		var p Pulse
		p, err = phase(clock, l, d, t.Tolerance)
		return p
	}
	tb.One = Symbol{mk(High, t.T1H), mk(Low, t.T1L)}
	tb.Zero = Symbol{mk(High, t.T0H), mk(Low, t.T0L)}
	if err != nil {
		return nil, err
	}

	// The reset only has a lower bound, so round up instead of to nearest.
	res, err := ticksFor(clock, t.Reset, math.Ceil)
	if err != nil {
		return nil, err
	}
	tail, err := ticksFor(clock, time.Microsecond, math.Ceil)
	if err != nil {
		return nil, err
	}
	tb.Reset = Symbol{{Level: Low, Ticks: res}, {Level: Low, Ticks: tail}}
	return tb, nil
}
