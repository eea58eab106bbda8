package effect

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
)

// scriptedRand replays vals (modulo n) and then returns zeros.
type scriptedRand struct {
	vals []int
	i    int
}

func (s *scriptedRand) Intn(n int) int {
	if s.i >= len(s.vals) {
		return 0
	}
	v := s.vals[s.i] % n
	s.i++
	return v
}

func TestDurationRangeSample(t *testing.T) {
	r := DurationRange{Min: 200 * time.Millisecond, Max: 500 * time.Millisecond}
	assert.Equal(t, 200*time.Millisecond, r.Sample(&scriptedRand{vals: []int{0}}))
	assert.Equal(t, 500*time.Millisecond, r.Sample(&scriptedRand{vals: []int{300}}))
	assert.Equal(t, time.Second, DurationRange{Min: time.Second}.Sample(&scriptedRand{}))

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		d := r.Sample(rnd)
		require.GreaterOrEqual(t, d, r.Min)
		require.LessOrEqual(t, d, r.Max)
	}
}

func TestEveryEffectThroughInterface(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, []string{"blink", "rainbow", "spookyeyes", "sweep"}, reg.List())

	p := Params{EyePairs: 2, DegPerLED: 10, DegPerTick: 5, SweepMode: RGBChannels}
	for _, name := range reg.List() {
		t.Run(name, func(t *testing.T) {
			fx, err := reg.Build(name, 10, p, rand.New(rand.NewSource(1)))
			require.NoError(t, err)
			assert.Equal(t, name, fx.Name())

			seg := led.NewSegment(10)
			for i := 0; i < 50; i++ {
				require.NoError(t, fx.Tick(seg, 100*time.Millisecond))
			}
			assert.Equal(t, 10, seg.Len())
		})
	}
}

func TestRegistryUnknownEffect(t *testing.T) {
	_, err := DefaultRegistry().Build("fireworks", 10, Params{}, &scriptedRand{})
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestBlinkRecolorsOncePerInterval(t *testing.T) {
	b := NewBlink(&scriptedRand{vals: []int{10, 20, 30, 40, 50, 60}})
	seg := led.NewSegment(6)

	require.NoError(t, b.Tick(seg, 500*time.Millisecond))
	for _, c := range seg.Colors() {
		assert.Equal(t, led.Black(), c)
	}

	require.NoError(t, b.Tick(seg, 600*time.Millisecond))
	for _, c := range seg.Colors() {
		assert.Equal(t, led.RGB(10, 20, 30), c)
	}

	// Timer restarted at the color change.
	require.NoError(t, b.Tick(seg, 900*time.Millisecond))
	assert.Equal(t, led.RGB(10, 20, 30), seg.At(0))
	require.NoError(t, b.Tick(seg, 200*time.Millisecond))
	assert.Equal(t, led.RGB(40, 50, 60), seg.At(5))
}

func TestRainbowZeroSpreadIsUniform(t *testing.T) {
	r := NewRainbow(0, 13)
	seg := led.NewSegment(12)
	for tick := 0; tick < 40; tick++ {
		require.NoError(t, r.Tick(seg, 20*time.Millisecond))
		first := seg.At(0)
		for i, c := range seg.Colors() {
			if c != first {
				t.Fatalf("tick %d: led %d = %v, want %v", tick, i, c, first)
			}
		}
	}
}

func TestRainbowIsPeriodicIn360(t *testing.T) {
	r := NewRainbow(0, 1)
	seg := led.NewSegment(1)
	require.NoError(t, r.Tick(seg, 0))
	start := seg.At(0)
	assert.Equal(t, led.RGB(255, 0, 0), start)

	seen := map[led.Color]bool{}
	for i := 0; i < 359; i++ {
		require.NoError(t, r.Tick(seg, 0))
		seen[seg.At(0)] = true
	}
	assert.Greater(t, len(seen), 100)
	require.NoError(t, r.Tick(seg, 0))
	assert.Equal(t, start, seg.At(0))
}

func TestRainbowSpreadsAlongStrip(t *testing.T) {
	r := NewRainbow(120, 0)
	seg := led.NewSegment(4)
	require.NoError(t, r.Tick(seg, 0))
	assert.Equal(t, wheelColor(0), seg.At(0))
	assert.Equal(t, wheelColor(120), seg.At(1))
	assert.Equal(t, wheelColor(240), seg.At(2))
	assert.Equal(t, wheelColor(0), seg.At(3))
}

func TestRainbowPhaseWrapsModulo(t *testing.T) {
	r := NewRainbow(0, 1000)
	seg := led.NewSegment(1)
	for i := 0; i < 50; i++ {
		require.NoError(t, r.Tick(seg, 0))
		require.GreaterOrEqual(t, r.Phase(), 0)
		require.Less(t, r.Phase(), 360)
	}
	assert.Equal(t, (50*1000)%360, r.Phase())
}

func TestSweepIndex(t *testing.T) {
	s, err := NewSweep(IndexSweep, 100*time.Millisecond)
	require.NoError(t, err)
	seg := led.NewSegment(3)

	require.NoError(t, s.Tick(seg, 0))
	assert.Equal(t, []led.Color{led.White(), led.Black(), led.Black()}, seg.Colors())
	require.NoError(t, s.Tick(seg, 150*time.Millisecond))
	assert.Equal(t, []led.Color{led.Black(), led.White(), led.Black()}, seg.Colors())
	require.NoError(t, s.Tick(seg, 200*time.Millisecond))
	assert.Equal(t, []led.Color{led.White(), led.Black(), led.Black()}, seg.Colors(), "wraps past the end")
}

func TestSweepChannels(t *testing.T) {
	s, err := NewSweep(RGBChannels, time.Second)
	require.NoError(t, err)
	seg := led.NewSegment(2)
	want := []led.Color{led.RGB(255, 0, 0), led.RGB(0, 255, 0), led.RGB(0, 0, 255), led.RGB(255, 0, 0)}
	for i, w := range want {
		elapsed := time.Second
		if i == 0 {
			elapsed = 0
		}
		require.NoError(t, s.Tick(seg, elapsed))
		assert.Equal(t, w, seg.At(1))
	}
}

func TestSweepRejectsUnknownMode(t *testing.T) {
	_, err := NewSweep("plane_z", 0)
	assert.True(t, errors.Is(err, ErrConfiguration))
}
