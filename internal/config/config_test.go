package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-spookyeyes/internal/driver/spi"
	"github.com/coreman2200/funtimes-spookyeyes/internal/effect"
	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
	"github.com/coreman2200/funtimes-spookyeyes/internal/pulse"
)

func TestDefaultsAreValid(t *testing.T) {
	c := Defaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, 150, c.LEDCount)
	assert.Equal(t, 20*time.Millisecond, c.Refresh())
	assert.Equal(t, "ws2811", c.Protocol)
	assert.Equal(t, "spookyeyes", c.Effect.Name)
}

func TestLoadOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
led_count: 60
pad_last_pixel: true
color_order: GRB
effect:
  name: rainbow
  deg_per_led: 6
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, c.LEDCount)
	assert.Equal(t, 61, c.Strip().Len())
	assert.Equal(t, "GRB", c.ColorOrder)
	assert.Equal(t, "rainbow", c.Effect.Name)
	assert.Equal(t, 6, c.EffectParams().DegPerLED)
	assert.Equal(t, 10, c.EffectParams().DegPerTick, "kept from defaults")
	assert.Equal(t, 20, c.RefreshMs, "kept from defaults")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("led_count: [1, 2"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := Defaults()
	c.Effect.Name = "sweep"
	c.Effect.SweepMode = string(effect.RGBChannels)
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("SPOOKY_LED_COUNT", "42")
	t.Setenv("SPOOKY_EFFECT", "blink")
	t.Setenv("SPOOKY_PAD_LAST_PIXEL", "true")
	t.Setenv("SPOOKY_SEED", "7")

	c := Defaults()
	c.Driver = "console"
	require.NoError(t, c.ApplyEnv())
	assert.Equal(t, 42, c.LEDCount)
	assert.Equal(t, "blink", c.Effect.Name)
	assert.True(t, c.PadLastPixel)
	assert.Equal(t, int64(7), c.Effect.Seed)
	assert.Equal(t, "console", c.Driver, "unset variables keep the file value")
}

func TestEnvRejectsBadBool(t *testing.T) {
	t.Setenv("SPOOKY_PAD_LAST_PIXEL", "sometimes")
	assert.Error(t, Defaults().ApplyEnv())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SPOOKY_REFRESH_MS=33\n"), 0644))
	t.Setenv("SPOOKY_REFRESH_MS", "")
	os.Unsetenv("SPOOKY_REFRESH_MS")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "absent.env"), path))
	c := Defaults()
	require.NoError(t, c.ApplyEnv())
	assert.Equal(t, 33, c.RefreshMs)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	c := Defaults()
	c.RefreshMs = 0
	c.Protocol = "apa102"
	c.ColorOrder = "RRB"
	c.Driver = "pwm"
	c.Effect.Name = "fireworks"

	err := c.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	for _, field := range []string{"refresh_ms", "protocol", "color_order", "driver", "effect.name"} {
		assert.ErrorContains(t, err, field)
	}
}

func TestDefaultFrameFitsStockSpidevBuffer(t *testing.T) {
	c := Defaults()
	c.PadLastPixel = true
	clock := physic.Frequency(c.SPI.SpeedHz) * physic.Hertz
	for _, name := range []string{"ws2811", "ws2812"} {
		timing, err := pulse.TimingByName(name)
		require.NoError(t, err)
		enc, err := pulse.NewEncoder(c.ColorOrder)
		require.NoError(t, err)
		_, err = enc.Init(clock, timing)
		require.NoError(t, err, name)

		frame, err := enc.EncodeSegment(led.NewSegment(c.Strip().Len()))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(spi.Pack(nil, frame)), spi.StockBufsiz, name)
	}
}
