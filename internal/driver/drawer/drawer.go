// Package drawer shows pulse frames on any periph display.Drawer: the console
// screen, or a strip driven by periph's own NRZ encoder.
package drawer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/funtimes-spookyeyes/internal/pulse"
)

// VirtualClock is the clock reported to the encoder. Frames are decoded back to
// colors before drawing, so any rate the timing tables accept will do.
const VirtualClock = 10 * physic.MegaHertz

// NRZFreq is the only SPI rate nrzled accepts: three SPI bits per 800 kHz
// data bit plus margin.
const NRZFreq = (800*3 + 100) * physic.KiloHertz

// Driver is a controller.Transmitter that draws each decoded frame as a one-pixel-high image.
type Driver struct {
	mu  sync.Mutex
	d   display.Drawer
	enc *pulse.Encoder
	img *image.NRGBA
	log zerolog.Logger
}

// New draws frames decoded with enc onto d.
func New(d display.Drawer, enc *pulse.Encoder) *Driver {
	return &Driver{
		d:   d,
		enc: enc,
		log: log.With().Str("component", "drawer").Str("device", d.String()).Logger(),
	}
}

// Console prints n LEDs to the terminal.
func Console(n int, enc *pulse.Encoder) *Driver {
	return New(screen.New(n), enc)
}

// NRZ hands the colors to periph's nrzled device on port, which does its own
// bit encoding at freq. Zero freq means NRZFreq.
func NRZ(port spi.Port, n int, freq physic.Frequency, enc *pulse.Encoder) (*Driver, error) {
	if freq == 0 {
		freq = NRZFreq
	}
	dev, err := nrzled.NewSPI(port, &nrzled.Opts{NumPixels: n, Channels: 3, Freq: freq})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	if err := dev.Halt(); err != nil {
		return nil, fmt.Errorf("nrzled halt: %w", err)
	}
	return New(dev, enc), nil
}

func (d *Driver) ClockRate() (physic.Frequency, error) { return VirtualClock, nil }

func (d *Driver) Transmit(frame []pulse.Symbol, _ physic.Frequency) error {
	colors, err := d.enc.Decode(frame)
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.img == nil || d.img.Rect.Dx() != len(colors) {
		d.img = image.NewNRGBA(image.Rect(0, 0, len(colors), 1))
	}
	for i, c := range colors {
		d.img.SetNRGBA(i, 0, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
	}
	return d.d.Draw(d.d.Bounds(), d.img, image.Point{})
}

// Image is the last drawn frame, or nil.
func (d *Driver) Image() *image.NRGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.img
}

// Close blanks the device.
func (d *Driver) Close() error {
	if err := d.d.Halt(); err != nil {
		return errors.Join(errors.New("drawer halt"), err)
	}
	return nil
}
