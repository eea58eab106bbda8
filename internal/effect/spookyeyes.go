package effect

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
)

// WeightedColor is one palette entry; Weight is relative to the palette total.
type WeightedColor struct {
	Color  led.Color
	Weight int
}

// EyesConfig holds every timing and color knob of SpookyEyes.
type EyesConfig struct {
	// Pairs is the requested number of eye pairs. Zero means one pair per eight LEDs.
	Pairs int
	// Gap is the minimum count of dark LEDs between two pairs.
	Gap int

	Fade      time.Duration
	InitialOn time.Duration
	Closed    DurationRange
	On        DurationRange
	NextBlink DurationRange
	Blink     DurationRange

	Palette []WeightedColor
	// Tint is a per-channel warm correction applied as channel*tint/255.
	Tint led.Color
}

func DefaultEyesConfig() EyesConfig {
	return EyesConfig{
		Gap:       2,
		Fade:      2 * time.Second,
		InitialOn: 15 * time.Second,
		Closed:    DurationRange{30 * time.Second, 60 * time.Second},
		On:        DurationRange{120 * time.Second, 300 * time.Second},
		NextBlink: DurationRange{2 * time.Second, 30 * time.Second},
		Blink:     DurationRange{200 * time.Millisecond, 500 * time.Millisecond},
		Palette: []WeightedColor{
			{led.RGB(153, 0, 0), 80},   // red
			{led.RGB(178, 115, 0), 15}, // orange
			{led.RGB(51, 102, 0), 5},   // green
		},
		Tint: led.RGB(255, 224, 140),
	}
}

// SpookyEyes animates pairs of glowing eyes that open, stare, blink and close on
// independent randomized timers over an otherwise dark strip.
type SpookyEyes struct {
	cfg   EyesConfig
	rnd   Rand
	pairs []*EyePair
	log   zerolog.Logger
}

// NewSpookyEyes places the eye pairs for a segment of segLen LEDs. Every pair starts
// awake for cfg.InitialOn. A segment too short to hold a pair is logged and yields an
// effect that renders nothing.
func NewSpookyEyes(segLen int, cfg EyesConfig, rnd Rand) *SpookyEyes {
	s := &SpookyEyes{
		cfg: cfg,
		rnd: rnd,
		log: log.With().Str("effect", "spookyeyes").Logger(),
	}
	if segLen < 2 {
		s.log.Error().Err(ErrConfiguration).Int("segment_len", segLen).Msg("need at least two LEDs; eyes disabled")
		return s
	}

	want := cfg.Pairs
	if want <= 0 {
		want = max(1, segLen/8)
	}
	for _, idx := range placePairs(want, segLen, cfg.Gap, rnd) {
		p := &EyePair{First: idx[0], Second: idx[1], color: s.pickColor()}
		p.enterOpened(cfg.InitialOn, cfg.NextBlink.Sample(rnd))
		s.pairs = append(s.pairs, p)
	}
	if len(s.pairs) < want {
		s.log.Warn().Int("requested", want).Int("placed", len(s.pairs)).Msg("strip too short for every eye pair")
	}
	return s
}

func (s *SpookyEyes) Name() string { return "spookyeyes" }

// Pairs exposes the placed eye pairs in index order.
func (s *SpookyEyes) Pairs() []*EyePair { return s.pairs }

func (s *SpookyEyes) Tick(seg *led.Segment, elapsed time.Duration) error {
	for _, p := range s.pairs {
		if err := p.tick(elapsed, seg, s); err != nil {
			return err
		}
	}
	return nil
}

// pickColor draws a palette entry by weight and applies the warm tint.
func (s *SpookyEyes) pickColor() led.Color {
	total := 0
	for _, w := range s.cfg.Palette {
		total += max(w.Weight, 0)
	}
	if total == 0 {
		return led.Black()
	}
	n := s.rnd.Intn(total)
	for _, w := range s.cfg.Palette {
		if w.Weight <= 0 {
			continue
		}
		if n < w.Weight {
			return tint(w.Color, s.cfg.Tint)
		}
		n -= w.Weight
	}
	return led.Black()
}

func tint(c, t led.Color) led.Color {
	ch := func(v, k uint8) uint8 {
		return uint8(math.Round(float64(v) * float64(k) / 255.0))
	}
	return led.RGB(ch(c.R, t.R), ch(c.G, t.G), ch(c.B, t.B))
}

// EyeState is the life-cycle phase of an eye pair.
type EyeState int

const (
	Closed EyeState = iota
	Opening
	Opened
	Blinking
	Closing
)

func (s EyeState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Opened:
		return "opened"
	case Blinking:
		return "blinking"
	case Closing:
		return "closing"
	}
	return fmt.Sprintf("EyeState(%d)", int(s))
}

// EyePair is two adjacent LEDs animated as one eye unit.
type EyePair struct {
	First, Second int

	state EyeState
	// remaining counts down the closed, fade or blink period of the current state.
	remaining time.Duration
	// remainingOn is the awake time left; frozen while Blinking.
	remainingOn time.Duration
	toBlink     time.Duration
	color       led.Color
}

func (p *EyePair) State() EyeState { return p.state }

// Color is the tinted base color the pair shows while open.
func (p *EyePair) Color() led.Color { return p.color }

func (p *EyePair) enterClosed(d time.Duration) {
	p.state, p.remaining = Closed, d
}

func (p *EyePair) enterOpening(fade time.Duration) {
	p.state, p.remaining = Opening, fade
}

func (p *EyePair) enterOpened(on, toBlink time.Duration) {
	p.state, p.remainingOn, p.toBlink = Opened, on, toBlink
}

func (p *EyePair) enterBlinking(d time.Duration) {
	p.state, p.remaining = Blinking, d
}

func (p *EyePair) enterClosing(fade time.Duration) {
	p.state, p.remaining = Closing, fade
}

// tick advances the pair by elapsed and writes its color to both LEDs.
// A transition out of Opened takes effect on screen from the following tick.
func (p *EyePair) tick(elapsed time.Duration, seg *led.Segment, fx *SpookyEyes) error {
	cfg := &fx.cfg
	var out led.Color

	switch p.state {
	case Closed:
		p.remaining = saturatingSub(p.remaining, elapsed)
		if p.remaining == 0 {
			p.color = fx.pickColor()
			p.enterOpening(cfg.Fade)
		}
		out = led.Black()

	case Opening:
		p.remaining = saturatingSub(p.remaining, elapsed)
		if p.remaining == 0 {
			p.enterOpened(cfg.On.Sample(fx.rnd), cfg.NextBlink.Sample(fx.rnd))
			out = p.color
		} else {
			out = p.color.Mul(1 - fadeRatio(p.remaining, cfg.Fade))
		}

	case Opened:
		p.remainingOn = saturatingSub(p.remainingOn, elapsed)
		p.toBlink = saturatingSub(p.toBlink, elapsed)
		if p.remainingOn == 0 {
			p.enterClosing(cfg.Fade)
		} else if p.toBlink == 0 {
			p.enterBlinking(cfg.Blink.Sample(fx.rnd))
		}
		out = p.color

	case Blinking:
		p.remaining = saturatingSub(p.remaining, elapsed)
		if p.remaining == 0 {
			p.enterOpened(p.remainingOn, cfg.NextBlink.Sample(fx.rnd))
			out = p.color
		} else {
			out = led.Black()
		}

	case Closing:
		p.remaining = saturatingSub(p.remaining, elapsed)
		if p.remaining == 0 {
			p.enterClosed(cfg.Closed.Sample(fx.rnd))
			out = led.Black()
		} else {
			out = p.color.Mul(fadeRatio(p.remaining, cfg.Fade))
		}

	default:
		return fmt.Errorf("%w: eye pair at %d in %v", ErrRender, p.First, p.state)
	}

	seg.Set(p.First, out)
	seg.Set(p.Second, out)
	return nil
}

func fadeRatio(remaining, fade time.Duration) float64 {
	if fade <= 0 {
		return 0
	}
	r := float64(remaining) / float64(fade)
	if r > 1 {
		return 1
	}
	return r
}
