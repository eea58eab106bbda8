package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-spookyeyes/internal/config"
	"github.com/coreman2200/funtimes-spookyeyes/internal/controller"
	"github.com/coreman2200/funtimes-spookyeyes/internal/driver/drawer"
	spidrv "github.com/coreman2200/funtimes-spookyeyes/internal/driver/spi"
	"github.com/coreman2200/funtimes-spookyeyes/internal/effect"
	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
	"github.com/coreman2200/funtimes-spookyeyes/internal/monitor"
	"github.com/coreman2200/funtimes-spookyeyes/internal/pulse"
)

type transmitter interface {
	controller.Transmitter
	io.Closer
}

func main() {
	// ---- Flags (explicitly set flags win over config.yaml and SPOOKY_*) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		envPath    = flag.String("env", ".env", "path to a .env file")
		leds       = flag.Int("leds", 150, "number of LEDs on the strip")
		refreshMs  = flag.Int("refresh-ms", 20, "milliseconds between frames")
		effectName = flag.String("effect", "spookyeyes", "effect: "+strings.Join(effect.DefaultRegistry().List(), " | "))
		driverName = flag.String("driver", "spi", "driver: spi | nrzled | console")
		colorOrder = flag.String("color", "RGB", "LED color order (e.g. GRB, RGB)")
		addr       = flag.String("addr", ":8080", "monitor listen address, empty to disable")
		logLevel   = flag.String("log-level", "info", "trace | debug | info | warn | error")
		seed       = flag.Int64("seed", 0, "random seed, 0 seeds from the clock")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Config: defaults < config.yaml < .env/SPOOKY_* < flags ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults")
		cfg = config.Defaults()
	}
	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Warn().Err(err).Msg("dotenv")
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal().Err(err).Msg("environment overrides")
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "leds":
			cfg.LEDCount = *leds
		case "refresh-ms":
			cfg.RefreshMs = *refreshMs
		case "effect":
			cfg.Effect.Name = *effectName
		case "driver":
			cfg.Driver = *driverName
		case "color":
			cfg.ColorOrder = *colorOrder
		case "addr":
			cfg.Monitor.Addr = *addr
		case "log-level":
			cfg.LogLevel = *logLevel
		case "seed":
			cfg.Effect.Seed = *seed
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	// ---- Encoder, segment, effect ----
	timing, _ := pulse.TimingByName(cfg.Protocol)
	enc, err := pulse.NewEncoder(cfg.ColorOrder)
	if err != nil {
		log.Fatal().Err(err).Msg("encoder")
	}
	strip := cfg.Strip()
	seg := led.NewSegment(strip.Len())

	s := cfg.Effect.Seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(s))
	// Effects see the logical strip; the padding pixel stays dark.
	fx, err := effect.DefaultRegistry().Build(cfg.Effect.Name, strip.Count, cfg.EffectParams(), rnd)
	if err != nil {
		log.Fatal().Err(err).Msg("effect")
	}

	// ---- Driver selection, falling back to the console ----
	tx, selected := openDriver(cfg, strip.Len(), enc)

	// ---- Monitor ----
	var ctl *controller.Controller
	hub := monitor.NewHub(monitor.Info{
		LEDs:      strip.Count,
		Effect:    fx.Name(),
		Driver:    selected,
		Protocol:  timing.Name,
		RefreshMS: cfg.RefreshMs,
	}, func() controller.Stats { return ctl.Stats() })

	// ---- Controller ----
	post := controller.DefaultPost()
	if cfg.Power.BudgetMA > 0 {
		post.Budget = controller.BudgetLimiter(cfg.Power.ChanMA, cfg.Power.BudgetMA, 0.9)
	}
	ctl, err = controller.New(seg, fx, enc, tx, controller.Options{
		Timing:  timing,
		Post:    &post,
		OnFrame: hub.PublishFrame,
		OnDiag:  hub.PublishDiag,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", selected).Msg("controller")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if cfg.Monitor.Addr != "" {
		srv = &http.Server{
			Addr:         cfg.Monitor.Addr,
			Handler:      hub.Router(cfg.Monitor.Origins),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.Monitor.Addr).Msg("monitor starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("monitor server crashed")
			}
		}()
	}

	// ---- Render loop until SIGINT/SIGTERM ----
	log.Info().
		Str("effect", fx.Name()).
		Str("driver", selected).
		Int("leds", strip.Count).
		Stringer("clock", ctl.Clock()).
		Msg("spooky lights running")
	if err := ctl.Run(ctx, cfg.Refresh()); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("render loop")
	}

	// ---- Graceful shutdown ----
	log.Info().Msg("shutting down")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}
	hub.Close()
	// blank the strip before letting go of it
	seg.TurnOff()
	if frame, err := enc.EncodeSegment(seg); err == nil {
		_ = tx.Transmit(frame, ctl.Clock())
	}
	if err := tx.Close(); err != nil {
		log.Warn().Err(err).Msg("driver close")
	}
}

// openDriver picks the configured transmitter. Hardware failures fall back to
// the console so the effect can still be watched.
func openDriver(cfg *config.Config, n int, enc *pulse.Encoder) (transmitter, string) {
	if cfg.Driver == "console" {
		return drawer.Console(n, enc), "console"
	}
	if _, err := host.Init(); err != nil {
		log.Warn().Err(err).Msg("periph host init failed; falling back to console")
		return drawer.Console(n, enc), "console"
	}

	switch cfg.Driver {
	case "spi":
		d, err := spidrv.Open(cfg.SPI.Dev, physic.Frequency(cfg.SPI.SpeedHz)*physic.Hertz)
		if err == nil {
			return d, "spi"
		}
		log.Warn().Err(err).
			Str("driver", "spi").
			Str("dev", cfg.SPI.Dev).
			Int("speed_hz", cfg.SPI.SpeedHz).
			Msg("SPI init failed; falling back to console")

	case "nrzled":
		p, err := spireg.Open(cfg.SPI.Dev)
		if err == nil {
			var d *drawer.Driver
			if d, err = drawer.NRZ(p, n, drawer.NRZFreq, enc); err == nil {
				return nrzCloser{d, p}, "nrzled"
			}
			_ = p.Close()
		}
		log.Warn().Err(err).Str("driver", "nrzled").Msg("nrzled init failed; falling back to console")
	}
	return drawer.Console(n, enc), "console"
}

// nrzCloser also releases the SPI port the nrzled device was opened on.
type nrzCloser struct {
	*drawer.Driver
	port io.Closer
}

func (n nrzCloser) Close() error {
	return errors.Join(n.Driver.Close(), n.port.Close())
}
