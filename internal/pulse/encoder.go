package pulse

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
)

var (
	// ErrTiming reports pulse tables that cannot meet the protocol at a clock rate.
	ErrTiming = errors.New("pulse timing unachievable")
	// ErrNotInitialised is returned by Encode before any tables were installed.
	ErrNotInitialised = errors.New("pulse tables not initialised")
	// ErrMalformedFrame is returned by Decode for frames Encode could not have produced.
	ErrMalformedFrame = errors.New("malformed pulse frame")
	ErrChannelOrder   = errors.New("invalid channel order")
)

// Encoder serializes colors into pulse frames. One Encoder is shared by every
// controller driving the same kind of strip; its tables are installed once.
type Encoder struct {
	order  [3]int
	tables atomic.Pointer[Tables]
	log    zerolog.Logger
}

// NewEncoder returns an encoder emitting channels in order, a permutation of "RGB".
// An empty order means RGB.
func NewEncoder(order string) (*Encoder, error) {
	o, err := parseOrder(order)
	if err != nil {
		return nil, err
	}
	return &Encoder{order: o, log: log.With().Str("component", "pulse").Logger()}, nil
}

func parseOrder(order string) ([3]int, error) {
	if order == "" {
		order = "RGB"
	}
	var o [3]int
	seen := map[byte]bool{}
	if len(order) != 3 {
		return o, fmt.Errorf("%w: %q", ErrChannelOrder, order)
	}
	for i := 0; i < 3; i++ {
		c := strings.ToUpper(order)[i]
		idx := strings.IndexByte("RGB", c)
		if idx < 0 || seen[c] {
			return o, fmt.Errorf("%w: %q", ErrChannelOrder, order)
		}
		seen[c] = true
		o[i] = idx
	}
	return o, nil
}

// Init computes the tables for t at clock and installs them unless another caller
// already did. It reports whether this call's tables were installed; losing the race
// is logged and is not an error.
func (e *Encoder) Init(clock physic.Frequency, t Timing) (bool, error) {
	if cur := e.tables.Load(); cur != nil {
		e.warnInstalled(cur, clock)
		return false, nil
	}
	tb, err := NewTables(clock, t)
	if err != nil {
		return false, err
	}
	if !e.tables.CompareAndSwap(nil, tb) {
		e.warnInstalled(e.tables.Load(), clock)
		return false, nil
	}
	e.log.Debug().Str("protocol", t.Name).Stringer("clock", clock).
		Uint16("one_high", tb.One[0].Ticks).Uint16("zero_high", tb.Zero[0].Ticks).
		Msg("pulse tables installed")
	return true, nil
}

func (e *Encoder) warnInstalled(cur *Tables, clock physic.Frequency) {
	e.log.Warn().Stringer("installed_clock", cur.Clock).Stringer("clock", clock).
		Msg("pulse tables already set")
}

// Tables returns the installed tables, or nil.
func (e *Encoder) Tables() *Tables { return e.tables.Load() }

// FrameLen is the number of symbols Encode produces for n LEDs.
func FrameLen(n int) int { return n*24 + 1 }

// Encode appends to dst the frame for colors: per LED its three channel bytes in
// the encoder's order, each MSB first, then one reset symbol.
func (e *Encoder) Encode(dst []Symbol, colors []led.Color) ([]Symbol, error) {
	tb := e.tables.Load()
	if tb == nil {
		return dst, ErrNotInitialised
	}
	if cap(dst)-len(dst) < FrameLen(len(colors)) {
		grown := make([]Symbol, len(dst), len(dst)+FrameLen(len(colors)))
		copy(grown, dst)
		dst = grown
	}
	for _, c := range colors {
		ch := [3]uint8{c.R, c.G, c.B}
		for _, idx := range e.order {
			v := ch[idx]
			for shift := 7; shift >= 0; shift-- {
				if v&(1<<shift) == 0 {
					dst = append(dst, tb.Zero)
				} else {
					dst = append(dst, tb.One)
				}
			}
		}
	}
	return append(dst, tb.Reset), nil
}

// EncodeSegment encodes every LED of seg into a fresh frame.
func (e *Encoder) EncodeSegment(seg *led.Segment) ([]Symbol, error) {
	return e.Encode(nil, seg.Colors())
}

// Decode inverts Encode. The frame must end with the reset symbol.
func (e *Encoder) Decode(frame []Symbol) ([]led.Color, error) {
	tb := e.tables.Load()
	if tb == nil {
		return nil, ErrNotInitialised
	}
	if len(frame) == 0 || frame[len(frame)-1] != tb.Reset {
		return nil, fmt.Errorf("%w: missing reset", ErrMalformedFrame)
	}
	bits := frame[:len(frame)-1]
	if len(bits)%24 != 0 {
		return nil, fmt.Errorf("%w: %d bit symbols", ErrMalformedFrame, len(bits))
	}

	out := make([]led.Color, 0, len(bits)/24)
	for i := 0; i < len(bits); i += 24 {
		var ch [3]uint8
		for j, idx := range e.order {
			var v uint8
			for _, s := range bits[i+j*8 : i+j*8+8] {
				v <<= 1
				switch s {
				case tb.One:
					v |= 1
				case tb.Zero:
				default:
					return nil, fmt.Errorf("%w: unknown symbol %v at %d", ErrMalformedFrame, s, i)
				}
			}
			ch[idx] = v
		}
		out = append(out, led.RGB(ch[0], ch[1], ch[2]))
	}
	return out, nil
}
