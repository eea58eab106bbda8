package effect

import (
	"time"

	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
)

// BlinkInterval is how long Blink holds a color before drawing the next one.
const BlinkInterval = time.Second

// Blink paints the whole segment one random color, changing it once per BlinkInterval.
type Blink struct {
	rnd   Rand
	since time.Duration
}

func NewBlink(rnd Rand) *Blink { return &Blink{rnd: rnd} }

func (b *Blink) Name() string { return "blink" }

func (b *Blink) Tick(seg *led.Segment, elapsed time.Duration) error {
	b.since += elapsed
	if b.since <= BlinkInterval {
		return nil
	}
	b.since = 0
	c := led.RGB(uint8(b.rnd.Intn(256)), uint8(b.rnd.Intn(256)), uint8(b.rnd.Intn(256)))
	seg.SetAll(c)
	return nil
}
