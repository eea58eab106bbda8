package fake

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-spookyeyes/internal/pulse"
)

const Clock = 10 * physic.MegaHertz

// Driver counts frames and, given Out and Enc, prints a compact summary of each
// (first LED & avg). Useful for headless runs.
type Driver struct {
	Count int
	Out   io.Writer
	Enc   *pulse.Encoder
	Err   error
}

func (d *Driver) ClockRate() (physic.Frequency, error) { return Clock, nil }

func (d *Driver) Transmit(frame []pulse.Symbol, _ physic.Frequency) error {
	if d.Err != nil {
		return d.Err
	}
	d.Count++
	if d.Out == nil || d.Enc == nil {
		return nil
	}
	colors, err := d.Enc.Decode(frame)
	if err != nil {
		return err
	}
	if len(colors) == 0 {
		return nil
	}
	var r, g, b float64
	for _, c := range colors {
		r += float64(c.R)
		g += float64(c.G)
		b += float64(c.B)
	}
	n := float64(len(colors))
	_, err = fmt.Fprintf(d.Out, "[frame %04d] avg=(%.1f,%.1f,%.1f) first=%s\n",
		d.Count, r/n, g/n, b/n, colors[0])
	return err
}

func (d *Driver) Close() error { return nil }
