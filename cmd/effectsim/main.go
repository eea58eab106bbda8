package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-spookyeyes/internal/controller"
	"github.com/coreman2200/funtimes-spookyeyes/internal/driver/drawer"
	"github.com/coreman2200/funtimes-spookyeyes/internal/driver/fake"
	"github.com/coreman2200/funtimes-spookyeyes/internal/effect"
	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
	"github.com/coreman2200/funtimes-spookyeyes/internal/pulse"
)

// virtualClock advances only when told to, so hours of effect time run in seconds.
type virtualClock struct{ t time.Time }

func (v *virtualClock) Now() time.Time { return v.t }

func main() {
	var (
		name     = flag.String("effect", "spookyeyes", "effect: "+strings.Join(effect.DefaultRegistry().List(), " | "))
		leds     = flag.Int("leds", 40, "number of LEDs")
		refresh  = flag.Duration("refresh", 20*time.Millisecond, "frame interval")
		duration = flag.Duration("duration", 10*time.Second, "how long to run")
		fast     = flag.Bool("fast", false, "run on a virtual clock and print a text strip")
		summary  = flag.Bool("summary", false, "with -fast, also print per-frame averages")
		every    = flag.Int("every", 50, "with -fast, print every Nth frame")
		seed     = flag.Int64("seed", 1, "random seed")
		pairs    = flag.Int("pairs", 0, "spookyeyes pair count, 0 for one per 8 LEDs")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rnd := rand.New(rand.NewSource(*seed))
	fx, err := effect.DefaultRegistry().Build(*name, *leds, effect.Params{EyePairs: *pairs, DegPerTick: 10}, rnd)
	if err != nil {
		log.Fatal().Err(err).Msg("effect")
	}
	enc, err := pulse.NewEncoder("RGB")
	if err != nil {
		log.Fatal().Err(err).Msg("encoder")
	}
	seg := led.NewSegment(*leds)

	if !*fast {
		ctl, err := controller.New(seg, fx, enc, drawer.Console(*leds, enc), controller.Options{})
		if err != nil {
			log.Fatal().Err(err).Msg("controller")
		}
		ctx, cancel := context.WithTimeout(context.Background(), *duration)
		defer cancel()
		_ = ctl.Run(ctx, *refresh)
		fmt.Println()
		report(ctl.Stats(), fx)
		return
	}

	clk := &virtualClock{t: time.Unix(0, 0)}
	frames := 0
	drv := &fake.Driver{}
	if *summary {
		drv.Out, drv.Enc = os.Stdout, enc
	}
	ctl, err := controller.New(seg, fx, enc, drv, controller.Options{
		Now: clk.Now,
		OnFrame: func(colors []led.Color) {
			if frames%*every == 0 {
				fmt.Printf("%8s |%s|\n", clk.t.Sub(time.Unix(0, 0)).Truncate(time.Millisecond), strip(colors))
			}
			frames++
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("controller")
	}
	for end := clk.t.Add(*duration); clk.t.Before(end); clk.t = clk.t.Add(*refresh) {
		_ = ctl.Tick()
	}
	report(ctl.Stats(), fx)
}

// strip renders one character per LED by brightness.
func strip(colors []led.Color) string {
	const ramp = " .:-=+*#%@"
	var b strings.Builder
	for _, c := range colors {
		v := max(c.R, c.G, c.B)
		b.WriteByte(ramp[int(v)*(len(ramp)-1)/255])
	}
	return b.String()
}

func report(s controller.Stats, fx effect.Effect) {
	log.Info().
		Uint64("frames", s.Frames).
		Uint64("effect_errors", s.EffectErrors).
		Uint64("tx_errors", s.TxErrors).
		Dur("last_total", s.LastTotal).
		Msg("done")
	if eyes, ok := fx.(*effect.SpookyEyes); ok {
		for _, p := range eyes.Pairs() {
			log.Info().Int("first", p.First).Int("second", p.Second).Stringer("state", p.State()).Stringer("color", p.Color()).Msg("pair")
		}
	}
}
