package controller

import (
	"math"

	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
)

// PostPipeline groups output stages run on the copy of the segment that
// gets encoded; all are optional. The effect's own segment is never touched.
type PostPipeline struct {
	Limiter func(out *led.Segment)
	Budget  func(out *led.Segment)
}

// DefaultPost is the brightness cap: every channel halved.
func DefaultPost() PostPipeline {
	return PostPipeline{Limiter: HalfLimiter}
}

// HalfLimiter caps brightness by halving each channel of every LED.
func HalfLimiter(out *led.Segment) {
	leds := out.Leds()
	for i := range leds {
		leds[i].Set(leds[i].Color().Half())
	}
}

// BudgetLimiter returns a stage that scales the whole frame to stay under
// budgetMA, estimating chanMA milliamps per channel at full scale. Scaling
// starts gently at knee*budget. A budget <= 0 disables the stage.
func BudgetLimiter(chanMA, budgetMA, knee float64) func(*led.Segment) {
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}
	return func(out *led.Segment) {
		if budgetMA <= 0 {
			return
		}
		total := EstimateCurrent(out, chanMA)
		if total <= 0 {
			return
		}
		ratio := total / budgetMA
		if ratio <= knee {
			return
		}
		s := budgetMA / total
		if ratio <= 1 {
			t := (ratio - knee) / (1 - knee)
			s = 1 - t*(1-s)
		}
		scaleFrame(out, s)
	}
}

// EstimateCurrent models the draw of a frame in milliamps.
func EstimateCurrent(out *led.Segment, chanMA float64) float64 {
	var total float64
	for _, c := range out.Colors() {
		total += (float64(c.R) + float64(c.G) + float64(c.B)) / 255 * chanMA
	}
	return total
}

func scaleFrame(out *led.Segment, s float64) {
	if s >= 1 {
		return
	}
	leds := out.Leds()
	for i := range leds {
		c := leds[i].Color()
		// floor so the estimate never rounds back over budget
		leds[i].Set(led.RGB(
			uint8(math.Floor(float64(c.R)*s)),
			uint8(math.Floor(float64(c.G)*s)),
			uint8(math.Floor(float64(c.B)*s)),
		))
	}
}
