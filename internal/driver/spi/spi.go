// Package spi plays pulse frames on a SPI MOSI line: every clock tick of a
// pulse becomes one bit, high pulses as 1s and low pulses as 0s.
package spi

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/coreman2200/funtimes-spookyeyes/internal/pulse"
)

var (
	ErrClockMismatch = errors.New("frame encoded for a different clock")
	ErrFrameTooLarge = errors.New("frame exceeds SPI transfer limit")
)

// StockBufsiz is the spidev transfer limit of an untuned Linux kernel.
const StockBufsiz = 4096

// Driver is a controller.Transmitter backed by a periph SPI connection.
type Driver struct {
	mu     sync.Mutex
	conn   spi.Conn
	closer io.Closer
	clock  physic.Frequency
	buf    []byte
	log    zerolog.Logger
}

// New wraps an established connection running at clock.
func New(c spi.Conn, clock physic.Frequency) *Driver {
	return &Driver{
		conn:  c,
		clock: clock,
		log:   log.With().Str("component", "spi").Logger(),
	}
}

// Open connects to the SPI port named dev ("" picks the first one) at speed.
// host.Init must have been called.
func Open(dev string, speed physic.Frequency) (*Driver, error) {
	p, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", dev, err)
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("connect spi port %q at %s: %w", dev, speed, err)
	}
	d := New(c, speed)
	d.closer = p
	d.log.Info().Str("port", p.String()).Stringer("speed", speed).Msg("spi connected")
	return d, nil
}

func (d *Driver) ClockRate() (physic.Frequency, error) {
	if d.clock <= 0 {
		return 0, fmt.Errorf("spi: clock not set")
	}
	return d.clock, nil
}

// Transmit packs frame into bits and sends it in a single transfer. A split
// transfer would stall the line long enough to latch a partial frame.
func (d *Driver) Transmit(frame []pulse.Symbol, clock physic.Frequency) error {
	if clock != d.clock {
		return fmt.Errorf("%w: frame at %s, port at %s", ErrClockMismatch, clock, d.clock)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = Pack(d.buf[:0], frame)
	if l, ok := d.conn.(conn.Limits); ok {
		if max := l.MaxTxSize(); max > 0 && len(d.buf) > max {
			return fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, len(d.buf), max)
		}
	}
	if err := d.conn.Tx(d.buf, nil); err != nil {
		return fmt.Errorf("spi tx: %w", err)
	}
	return nil
}

// Close releases the port when the driver opened it.
func (d *Driver) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// Pack appends the bit image of frame to dst, MSB first. The last byte is
// padded with low bits, which extends the trailing reset.
func Pack(dst []byte, frame []pulse.Symbol) []byte {
	var cur byte
	var n uint
	for _, s := range frame {
		for _, p := range s {
			bit := byte(0)
			if p.Level == pulse.High {
				bit = 1
			}
			for i := uint16(0); i < p.Ticks; i++ {
				cur = cur<<1 | bit
				n++
				if n == 8 {
					dst = append(dst, cur)
					cur, n = 0, 0
				}
			}
		}
	}
	if n > 0 {
		dst = append(dst, cur<<(8-n))
	}
	return dst
}
