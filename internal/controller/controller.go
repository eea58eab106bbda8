package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-spookyeyes/internal/diagnostics"
	"github.com/coreman2200/funtimes-spookyeyes/internal/effect"
	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
	"github.com/coreman2200/funtimes-spookyeyes/internal/pulse"
)

var (
	ErrTransmit = errors.New("transmit failed")
	ErrEncode   = errors.New("encode failed")
)

// Transmitter abstracts the LED transport (SPI, console, etc.).
type Transmitter interface {
	// ClockRate is the rate, in ticks per second, the transmitter plays pulses at.
	ClockRate() (physic.Frequency, error)
	Transmit(frame []pulse.Symbol, clock physic.Frequency) error
}

type Options struct {
	// Timing of the attached strip. Zero means WS2811.
	Timing pulse.Timing
	// Now is the monotonic clock used to measure elapsed time. Defaults to time.Now.
	Now    func() time.Time
	Logger *zerolog.Logger
	// Post replaces DefaultPost when non-nil.
	Post    *PostPipeline
	OnFrame func([]led.Color)
	OnDiag  func(diagnostics.Diagnostic)
}

// Stats is a snapshot of the cycle counters.
type Stats struct {
	Frames       uint64        `json:"frames"`
	EffectErrors uint64        `json:"effect_errors"`
	EncodeErrors uint64        `json:"encode_errors"`
	TxErrors     uint64        `json:"tx_errors"`
	LastEffect   time.Duration `json:"last_effect_ns"`
	LastPost     time.Duration `json:"last_post_ns"`
	LastTotal    time.Duration `json:"last_total_ns"`
	LastFrameAt  time.Time     `json:"last_frame_at"`
}

// Controller owns one segment and one effect and pushes a frame per tick.
// Tick and Run are not safe for concurrent use; Stats is.
type Controller struct {
	seg    *led.Segment
	out    *led.Segment
	effect effect.Effect
	enc    *pulse.Encoder
	tx     Transmitter
	clock  physic.Frequency

	post    PostPipeline
	now     func() time.Time
	last    time.Time
	frame   []pulse.Symbol
	onFrame func([]led.Color)
	onDiag  func(diagnostics.Diagnostic)
	failing bool

	log zerolog.Logger

	mu    sync.Mutex
	stats Stats
}

// New queries the transmitter's clock and initialises the shared encoder for it.
// It fails only when the clock cannot be read or tables cannot be computed.
func New(seg *led.Segment, fx effect.Effect, enc *pulse.Encoder, tx Transmitter, opts Options) (*Controller, error) {
	if seg == nil || fx == nil || enc == nil || tx == nil {
		return nil, errors.New("controller: segment, effect, encoder and transmitter are required")
	}
	lg := log.With().Str("component", "controller").Str("effect", fx.Name()).Logger()
	if opts.Logger != nil {
		lg = *opts.Logger
	}
	timing := opts.Timing
	if timing.Name == "" {
		timing = pulse.WS2811
	}

	clock, err := tx.ClockRate()
	if err != nil {
		return nil, fmt.Errorf("query clock rate: %w", err)
	}
	if _, err := enc.Init(clock, timing); err != nil {
		return nil, fmt.Errorf("init pulse tables at %s: %w", clock, err)
	}
	tb := enc.Tables()
	if tb.Clock != clock {
		lg.Warn().Stringer("tables", tb.Clock).Stringer("device", clock).Msg("using tables computed for another clock")
	}

	c := &Controller{
		seg:     seg,
		out:     led.NewSegment(seg.Len()),
		effect:  fx,
		enc:     enc,
		tx:      tx,
		clock:   tb.Clock,
		post:    DefaultPost(),
		now:     opts.Now,
		frame:   make([]pulse.Symbol, 0, pulse.FrameLen(seg.Len())),
		onFrame: opts.OnFrame,
		onDiag:  opts.OnDiag,
		log:     lg,
	}
	if opts.Post != nil {
		c.post = *opts.Post
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.last = c.now()
	return c, nil
}

// Clock is the rate frames are transmitted at.
func (c *Controller) Clock() physic.Frequency { return c.clock }

func (c *Controller) Segment() *led.Segment { return c.seg }

func (c *Controller) SetPost(p PostPipeline) { c.post = p }

// Tick runs one render/encode/transmit cycle. Effect failures are logged and the
// frame still goes out; encode and transmit failures drop the frame. The error
// is returned for the caller to inspect and never needs to stop the loop.
func (c *Controller) Tick() error {
	start := time.Now()
	now := c.now()
	elapsed := now.Sub(c.last)
	if elapsed < 0 {
		elapsed = 0
	}
	c.last = now

	var cycleErr error
	if err := c.effect.Tick(c.seg, elapsed); err != nil {
		c.log.Error().Err(err).Msg("effect tick")
		c.diag(diagnostics.FromError(diagnostics.Warn, diagnostics.CodeEffectTick, "effect failed to render", err))
		c.count(func(s *Stats) { s.EffectErrors++ })
		cycleErr = err
	}
	effectDur := time.Since(start)

	postStart := time.Now()
	c.out.CopyFrom(c.seg)
	if c.post.Limiter != nil {
		c.post.Limiter(c.out)
	}
	if c.post.Budget != nil {
		c.post.Budget(c.out)
	}
	postDur := time.Since(postStart)

	colors := c.out.Colors()
	frame, err := c.enc.Encode(c.frame[:0], colors)
	if err != nil {
		c.log.Error().Err(err).Msg("encode frame")
		c.diag(diagnostics.FromError(diagnostics.Err, diagnostics.CodeEncodeFail, "frame dropped", err))
		c.count(func(s *Stats) { s.EncodeErrors++ })
		return errors.Join(cycleErr, fmt.Errorf("%w: %w", ErrEncode, err))
	}
	c.frame = frame

	if err := c.tx.Transmit(frame, c.clock); err != nil {
		c.log.Error().Err(err).Int("symbols", len(frame)).Msg("transmit frame")
		if !c.failing {
			c.diag(diagnostics.FromError(diagnostics.Err, diagnostics.CodeTxFail, "frame dropped", err))
		}
		c.failing = true
		c.count(func(s *Stats) { s.TxErrors++ })
		return errors.Join(cycleErr, fmt.Errorf("%w: %w", ErrTransmit, err))
	}
	if c.failing {
		c.failing = false
		c.log.Info().Msg("transmit recovered")
		c.diag(diagnostics.FromError(diagnostics.Info, diagnostics.CodeTxRecover, "frames flowing again", nil))
	}

	if c.onFrame != nil {
		c.onFrame(colors)
	}
	c.count(func(s *Stats) {
		s.Frames++
		s.LastEffect = effectDur
		s.LastPost = postDur
		s.LastTotal = time.Since(start)
		s.LastFrameAt = now
	})
	return cycleErr
}

// Run ticks every interval until ctx is done.
func (c *Controller) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("controller: invalid refresh interval %s", interval)
	}
	c.log.Info().Dur("interval", interval).Int("leds", c.seg.Len()).Msg("render loop started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("render loop stopped")
			return ctx.Err()
		case <-ticker.C:
			_ = c.Tick()
		}
	}
}

func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Controller) count(f func(*Stats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}

func (c *Controller) diag(d diagnostics.Diagnostic) {
	if c.onDiag != nil {
		c.onDiag(d)
	}
}
