package effect

import (
	"fmt"
	"sort"
	"time"
)

// Params carries the construction-time knobs of every effect.
// Fields an effect does not use are ignored.
type Params struct {
	EyePairs   int
	DegPerLED  int
	DegPerTick int
	SweepMode  SweepMode
	SweepStep  time.Duration
}

// Factory builds an effect for a segment of segLen LEDs.
type Factory func(segLen int, p Params, rnd Rand) (Effect, error)

type Registry struct{ m map[string]Factory }

func NewRegistry() *Registry { return &Registry{m: map[string]Factory{}} }

// DefaultRegistry knows every effect in this package.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("blink", func(_ int, _ Params, rnd Rand) (Effect, error) {
		return NewBlink(rnd), nil
	})
	r.Register("rainbow", func(_ int, p Params, _ Rand) (Effect, error) {
		return NewRainbow(p.DegPerLED, p.DegPerTick), nil
	})
	r.Register("spookyeyes", func(segLen int, p Params, rnd Rand) (Effect, error) {
		cfg := DefaultEyesConfig()
		cfg.Pairs = p.EyePairs
		return NewSpookyEyes(segLen, cfg, rnd), nil
	})
	r.Register("sweep", func(_ int, p Params, _ Rand) (Effect, error) {
		return NewSweep(p.SweepMode, p.SweepStep)
	})
	return r
}

func (r *Registry) Register(name string, f Factory) {
	if f == nil {
		return
	}
	r.m[name] = f
}

func (r *Registry) Build(name string, segLen int, p Params, rnd Rand) (Effect, error) {
	f, ok := r.m[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown effect %q", ErrConfiguration, name)
	}
	return f(segLen, p, rnd)
}

func (r *Registry) List() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
