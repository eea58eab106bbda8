package effect

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
)

// Rainbow sweeps a hue wheel along the strip and rotates it every tick.
type Rainbow struct {
	degPerLED  int
	degPerTick int
	phase      int
}

func NewRainbow(degPerLED, degPerTick int) *Rainbow {
	return &Rainbow{degPerLED: wrapDeg(degPerLED), degPerTick: wrapDeg(degPerTick)}
}

func (r *Rainbow) Name() string { return "rainbow" }

// Phase is the wheel offset, in degrees, of the first LED on the next tick.
func (r *Rainbow) Phase() int { return r.phase }

func (r *Rainbow) Tick(seg *led.Segment, _ time.Duration) error {
	deg := r.phase
	leds := seg.Leds()
	for i := range leds {
		leds[i].Set(wheelColor(deg))
		deg = (deg + r.degPerLED) % 360
	}

	next := r.phase + r.degPerTick
	if next >= 360 {
		log.Debug().Str("effect", "rainbow").Msg("full loop")
	}
	r.phase = next % 360
	return nil
}

func wheelColor(deg int) led.Color {
	return led.RGB(wheel[(deg+120)%360], wheel[deg%360], wheel[(deg+240)%360])
}

func wrapDeg(d int) int {
	return ((d % 360) + 360) % 360
}
