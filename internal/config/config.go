package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-spookyeyes/internal/effect"
	"github.com/coreman2200/funtimes-spookyeyes/internal/layout"
	"github.com/coreman2200/funtimes-spookyeyes/internal/pulse"
)

var ErrInvalid = errors.New("invalid config")

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0, empty picks the first port
	SpeedHz int    `yaml:"speed_hz"` // pulse clock, e.g. 3200000
}

type Effect struct {
	Name        string `yaml:"name"`
	EyePairs    int    `yaml:"eye_pairs,omitempty"` // 0 = one pair per 8 LEDs
	DegPerLED   int    `yaml:"deg_per_led"`
	DegPerTick  int    `yaml:"deg_per_tick"`
	Seed        int64  `yaml:"seed,omitempty"` // 0 = seeded from the clock
	SweepMode   string `yaml:"sweep_mode,omitempty"`
	SweepStepMs int    `yaml:"sweep_step_ms,omitempty"`
}

type Monitor struct {
	Addr    string   `yaml:"addr"` // empty disables the monitor
	Origins []string `yaml:"origins,omitempty"`
}

type Power struct {
	BudgetMA float64 `yaml:"budget_ma"` // 0 = no global budget
	ChanMA   float64 `yaml:"chan_ma"`
}

type Config struct {
	LEDCount     int    `yaml:"led_count"`
	PadLastPixel bool   `yaml:"pad_last_pixel"`
	RefreshMs    int    `yaml:"refresh_ms"`
	Protocol     string `yaml:"protocol"`    // ws2811 | ws2812
	ColorOrder   string `yaml:"color_order"` // permutation of RGB
	Driver       string `yaml:"driver"`      // spi | nrzled | console
	LogLevel     string `yaml:"log_level"`

	SPI     SPI     `yaml:"spi"`
	Effect  Effect  `yaml:"effect"`
	Monitor Monitor `yaml:"monitor"`
	Power   Power   `yaml:"power"`
}

// Defaults match the stock build: 150 LEDs refreshed every 20ms on WS2811.
func Defaults() *Config {
	return &Config{
		LEDCount:   150,
		RefreshMs:  20,
		Protocol:   "ws2811",
		ColorOrder: "RGB",
		Driver:     "spi",
		LogLevel:   "info",
		// 3.2 MHz keeps a 150 LED frame under the stock 4096 byte spidev
		// buffer. Faster clocks need spidev.bufsiz raised.
		SPI:        SPI{SpeedHz: 3_200_000},
		Effect:     Effect{Name: "spookyeyes", DegPerTick: 10},
		Monitor:    Monitor{Addr: ":8080"},
		Power:      Power{ChanMA: 20},
	}
}

// Load reads a YAML file over Defaults.
func Load(path string) (*Config, error) {
	c := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// LoadDotEnv loads the given .env files into the process environment. Missing
// files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Overrides are the SPOOKY_* environment variables. Unset or empty values keep
// the file setting.
type Overrides struct {
	LEDCount     int     `env:"SPOOKY_LED_COUNT"`
	PadLastPixel string  `env:"SPOOKY_PAD_LAST_PIXEL"`
	RefreshMs    int     `env:"SPOOKY_REFRESH_MS"`
	Protocol     string  `env:"SPOOKY_PROTOCOL"`
	ColorOrder   string  `env:"SPOOKY_COLOR_ORDER"`
	Driver       string  `env:"SPOOKY_DRIVER"`
	LogLevel     string  `env:"SPOOKY_LOG_LEVEL"`
	SPIDev       string  `env:"SPOOKY_SPI_DEV"`
	SPISpeedHz   int     `env:"SPOOKY_SPI_SPEED_HZ"`
	Effect       string  `env:"SPOOKY_EFFECT"`
	EyePairs     int     `env:"SPOOKY_EYE_PAIRS"`
	Seed         int     `env:"SPOOKY_SEED"`
	MonitorAddr  string  `env:"SPOOKY_MONITOR_ADDR"`
	BudgetMA     float64 `env:"SPOOKY_BUDGET_MA"`
}

// ApplyEnv overlays SPOOKY_* variables onto c.
func (c *Config) ApplyEnv() error {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	setInt(&c.LEDCount, o.LEDCount)
	setInt(&c.RefreshMs, o.RefreshMs)
	setInt(&c.SPI.SpeedHz, o.SPISpeedHz)
	setInt(&c.Effect.EyePairs, o.EyePairs)
	setStr(&c.Protocol, o.Protocol)
	setStr(&c.ColorOrder, o.ColorOrder)
	setStr(&c.Driver, o.Driver)
	setStr(&c.LogLevel, o.LogLevel)
	setStr(&c.SPI.Dev, o.SPIDev)
	setStr(&c.Effect.Name, o.Effect)
	setStr(&c.Monitor.Addr, o.MonitorAddr)
	if o.Seed != 0 {
		c.Effect.Seed = int64(o.Seed)
	}
	if o.BudgetMA != 0 {
		c.Power.BudgetMA = o.BudgetMA
	}
	if o.PadLastPixel != "" {
		v, err := strconv.ParseBool(o.PadLastPixel)
		if err != nil {
			return fmt.Errorf("SPOOKY_PAD_LAST_PIXEL: %w", err)
		}
		c.PadLastPixel = v
	}
	return nil
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	if c.LEDCount < 0 {
		bad("led_count %d is negative", c.LEDCount)
	}
	if c.RefreshMs <= 0 {
		bad("refresh_ms must be positive, got %d", c.RefreshMs)
	}
	if _, err := pulse.TimingByName(c.Protocol); err != nil {
		bad("protocol %q", c.Protocol)
	}
	if _, err := pulse.NewEncoder(c.ColorOrder); err != nil {
		bad("color_order %q", c.ColorOrder)
	}
	switch c.Driver {
	case "spi", "nrzled", "console":
	default:
		bad("driver %q (want spi, nrzled or console)", c.Driver)
	}
	if c.SPI.SpeedHz < 0 {
		bad("spi.speed_hz %d is negative", c.SPI.SpeedHz)
	}
	known := false
	for _, n := range effect.DefaultRegistry().List() {
		known = known || n == c.Effect.Name
	}
	if !known {
		bad("effect.name %q", c.Effect.Name)
	}
	if c.Effect.EyePairs < 0 {
		bad("effect.eye_pairs %d is negative", c.Effect.EyePairs)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		bad("log_level %q", c.LogLevel)
	}
	if c.Power.BudgetMA < 0 || c.Power.ChanMA < 0 {
		bad("power values must not be negative")
	}
	return errors.Join(errs...)
}

func (c *Config) Refresh() time.Duration { return time.Duration(c.RefreshMs) * time.Millisecond }

func (c *Config) Strip() layout.Strip {
	return layout.Strip{Count: c.LEDCount, PadLastPixel: c.PadLastPixel}
}

func (c *Config) EffectParams() effect.Params {
	return effect.Params{
		EyePairs:   c.Effect.EyePairs,
		DegPerLED:  c.Effect.DegPerLED,
		DegPerTick: c.Effect.DegPerTick,
		SweepMode:  effect.SweepMode(c.Effect.SweepMode),
		SweepStep:  time.Duration(c.Effect.SweepStepMs) * time.Millisecond,
	}
}
