package spi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
	"github.com/coreman2200/funtimes-spookyeyes/internal/pulse"
)

const testClock = 10 * physic.MegaHertz

func TestPackBits(t *testing.T) {
	frame := []pulse.Symbol{
		{{Level: pulse.High, Ticks: 3}, {Level: pulse.Low, Ticks: 5}},
		{{Level: pulse.High, Ticks: 4}, {Level: pulse.Low, Ticks: 1}},
	}
	got := Pack(nil, frame)
	// 11100000 11110 padded with 000
	assert.Equal(t, []byte{0xE0, 0xF0}, got)
}

func TestPackLength(t *testing.T) {
	enc, err := pulse.NewEncoder("GRB")
	require.NoError(t, err)
	_, err = enc.Init(testClock, pulse.WS2811)
	require.NoError(t, err)

	seg := led.NewSegment(4)
	frame, err := enc.EncodeSegment(seg)
	require.NoError(t, err)

	bits := 0
	for _, s := range frame {
		bits += s.Ticks()
	}
	assert.Len(t, Pack(nil, frame), (bits+7)/8)
}

func newRecorded(t *testing.T) (*Driver, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	port := spitest.NewRecordRaw(&buf)
	c, err := port.Connect(testClock, spi.Mode0, 8)
	require.NoError(t, err)
	return New(c, testClock), &buf
}

func TestTransmitWritesPackedFrame(t *testing.T) {
	d, out := newRecorded(t)
	clock, err := d.ClockRate()
	require.NoError(t, err)
	assert.Equal(t, testClock, clock)

	enc, err := pulse.NewEncoder("RGB")
	require.NoError(t, err)
	_, err = enc.Init(clock, pulse.WS2811)
	require.NoError(t, err)

	frame, err := enc.Encode(nil, []led.Color{led.RGB(255, 0, 0)})
	require.NoError(t, err)
	require.NoError(t, d.Transmit(frame, clock))

	got := out.Bytes()
	require.Equal(t, Pack(nil, frame), got)
	// the first "one" bit: 12 high ticks then 13 low
	assert.Equal(t, byte(0xFF), got[0])
	assert.Equal(t, byte(0xF0), got[1])
}

func TestTransmitRejectsForeignClock(t *testing.T) {
	d, out := newRecorded(t)
	err := d.Transmit([]pulse.Symbol{{{Level: pulse.Low, Ticks: 8}}}, 20*physic.MegaHertz)
	assert.ErrorIs(t, err, ErrClockMismatch)
	assert.Zero(t, out.Len())
}

func TestClockRateUnset(t *testing.T) {
	d := New(nil, 0)
	_, err := d.ClockRate()
	assert.Error(t, err)
	assert.NoError(t, d.Close())
}
