// Command pulsesim runs one frame through the pulse encoder against a recording
// pin and prints what the wire would carry.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/coreman2200/pixelwire/internal/critical"
	diag "github.com/coreman2200/pixelwire/internal/diagnostics"
	"github.com/coreman2200/pixelwire/internal/hal"
	"github.com/coreman2200/pixelwire/internal/patterns"
	"github.com/coreman2200/pixelwire/internal/pixel"
	"github.com/coreman2200/pixelwire/internal/pulse"
	"github.com/coreman2200/pixelwire/internal/pulse/pulsetest"
	"github.com/coreman2200/pixelwire/internal/timing"
)

func main() {
	var (
		data        = flag.StringP("data", "d", "", "wire bytes as hex, overrides --color")
		color       = flag.String("color", "#ff0000", "pixel color (#rrggbb), repeated --pixels times")
		pixels      = flag.IntP("pixels", "n", 1, "pixel count passed to the encoder")
		order       = flag.String("color-order", "GRB", "wire channel order for --color")
		pin         = flag.String("pin", "PA5", "pin reference")
		calibration = flag.String("calibration", timing.NetduinoPlus2.Target, "calibration name")
		protocol    = flag.String("protocol", timing.WS2812.Name, "timing protocol")
		trace       = flag.Bool("trace", false, "print every level change and hold")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cal, err := timing.LookupCalibration(*calibration)
	if err != nil {
		log.Fatal().Err(err).Strs("known", timing.Calibrations()).Msg("calibration")
	}
	proto, err := timing.LookupProtocol(*protocol)
	if err != nil {
		log.Fatal().Err(err).Msg("protocol")
	}
	ref, err := hal.ParsePinRef(*pin)
	if err != nil {
		log.Fatal().Err(err).Msg("pin")
	}
	buf, err := frame(*data, *color, *order, *pixels)
	if err != nil {
		log.Fatal().Err(err).Msg("frame")
	}

	rec := &pulsetest.Recorder{}
	mask := critical.NewFlag()
	tx := pulse.New(rec, rec, mask)
	if err := tx.Transmit(buf, *pixels, ref); err != nil {
		log.Fatal().Err(err).Msg("transmit")
	}

	if *trace {
		for _, e := range rec.Events {
			fmt.Println(e)
		}
	}

	sent, err := rec.Bytes()
	if err != nil {
		log.Fatal().Err(err).Msg("decode")
	}
	highs, lows := rec.Levels()
	fmt.Printf("pin        %s\n", ref)
	fmt.Printf("sent       %s\n", hex.EncodeToString(sent))
	fmt.Printf("levels     %d high, %d low, ends %s\n", highs, lows, level(rec.IsHigh()))
	fmt.Printf("masked     %d time(s), restored=%v\n", mask.Disables(), mask.Enabled())
	fmt.Printf("elapsed    %v on %s (nominal %v for %s, latch %v)\n",
		rec.Elapsed(cal), cal.Target, proto.FrameTime(*pixels), proto.Name, proto.Latch)

	for _, d := range diag.Calibration(cal, proto) {
		if d.Severity != diag.Info || strings.HasPrefix(d.Code, "CALIB.PHASE.") {
			fmt.Printf("%-8s %-24s %s %v\n", d.Severity, d.Code, d.Summary, d.Evidence)
		}
	}
	if diag.Worst(diag.Calibration(cal, proto)) == diag.Err {
		os.Exit(1)
	}
}

func frame(data, color, order string, pixels int) ([]byte, error) {
	if data != "" {
		return hex.DecodeString(strings.ReplaceAll(data, " ", ""))
	}
	c, err := patterns.ParseColor(color)
	if err != nil {
		return nil, err
	}
	o, err := pixel.ParseOrder(order)
	if err != nil {
		return nil, err
	}
	chain := pixel.NewChain(max(pixels, 0))
	chain.Fill(c)
	return chain.Bytes(o), nil
}

func level(high bool) string {
	if high {
		return "high"
	}
	return "low"
}
