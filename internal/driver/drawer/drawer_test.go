package drawer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
	"github.com/coreman2200/funtimes-spookyeyes/internal/pulse"
)

// fakeDrawer captures the last image drawn.
type fakeDrawer struct {
	n      int
	last   image.Image
	halted bool
	err    error
}

func (f *fakeDrawer) String() string          { return "fake" }
func (f *fakeDrawer) Halt() error             { f.halted = true; return nil }
func (f *fakeDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (f *fakeDrawer) Bounds() image.Rectangle { return image.Rect(0, 0, f.n, 1) }
func (f *fakeDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if f.err != nil {
		return f.err
	}
	f.last = src
	return nil
}

func newEncoder(t *testing.T, order string) *pulse.Encoder {
	t.Helper()
	enc, err := pulse.NewEncoder(order)
	require.NoError(t, err)
	_, err = enc.Init(VirtualClock, pulse.WS2811)
	require.NoError(t, err)
	return enc
}

func TestTransmitDrawsDecodedColors(t *testing.T) {
	enc := newEncoder(t, "GRB")
	fd := &fakeDrawer{n: 3}
	d := New(fd, enc)

	clock, err := d.ClockRate()
	require.NoError(t, err)
	colors := []led.Color{led.RGB(255, 0, 0), led.RGB(0, 128, 0), led.RGB(1, 2, 3)}
	frame, err := enc.Encode(nil, colors)
	require.NoError(t, err)
	require.NoError(t, d.Transmit(frame, clock))

	require.NotNil(t, fd.last)
	img := d.Image()
	assert.Equal(t, 3, img.Rect.Dx())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{G: 128, A: 255}, img.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, img.NRGBAAt(2, 0))
}

func TestTransmitRejectsGarbage(t *testing.T) {
	fd := &fakeDrawer{n: 1}
	d := New(fd, newEncoder(t, "RGB"))
	err := d.Transmit([]pulse.Symbol{{{Level: pulse.High, Ticks: 1}}}, VirtualClock)
	assert.ErrorIs(t, err, pulse.ErrMalformedFrame)
	assert.Nil(t, fd.last)
}

func TestTransmitPropagatesDrawError(t *testing.T) {
	enc := newEncoder(t, "RGB")
	fd := &fakeDrawer{n: 1, err: errors.New("display gone")}
	frame, err := enc.Encode(nil, []led.Color{led.White()})
	require.NoError(t, err)
	assert.ErrorContains(t, New(fd, enc).Transmit(frame, VirtualClock), "display gone")
}

func TestCloseHalts(t *testing.T) {
	fd := &fakeDrawer{}
	require.NoError(t, New(fd, newEncoder(t, "")).Close())
	assert.True(t, fd.halted)
}

func TestNRZWritesToPort(t *testing.T) {
	var buf bytes.Buffer
	enc := newEncoder(t, "RGB")
	d, err := NRZ(spitest.NewRecordRaw(&buf), 2, NRZFreq, enc)
	require.NoError(t, err)
	halted := buf.Len()

	frame, err := enc.Encode(nil, []led.Color{led.RGB(200, 0, 0), led.RGB(0, 0, 200)})
	require.NoError(t, err)
	require.NoError(t, d.Transmit(frame, VirtualClock))
	assert.Greater(t, buf.Len(), halted, "frame reached the port")
}

func TestNRZRejectsForeignRate(t *testing.T) {
	var buf bytes.Buffer
	_, err := NRZ(spitest.NewRecordRaw(&buf), 2, 800*physic.KiloHertz, newEncoder(t, "RGB"))
	assert.ErrorContains(t, err, "nrzled")
}

func TestNRZDefaultsRate(t *testing.T) {
	var buf bytes.Buffer
	_, err := NRZ(spitest.NewRecordRaw(&buf), 2, 0, newEncoder(t, "RGB"))
	assert.NoError(t, err)
}
