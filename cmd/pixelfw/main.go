//go:build tinygo

// Command pixelfw is the microcontroller build: it cycles the bring-up
// patterns on one pin using the calibrated NOP loop.
//
//	tinygo flash -target=pico -opt=2 ./cmd/pixelfw
package main

import (
	"time"

	"github.com/coreman2200/pixelwire/internal/critical"
	"github.com/coreman2200/pixelwire/internal/delay"
	diag "github.com/coreman2200/pixelwire/internal/diagnostics"
	"github.com/coreman2200/pixelwire/internal/hal"
	"github.com/coreman2200/pixelwire/internal/hal/machinepin"
	"github.com/coreman2200/pixelwire/internal/patterns"
	"github.com/coreman2200/pixelwire/internal/pixel"
	"github.com/coreman2200/pixelwire/internal/pulse"
	"github.com/coreman2200/pixelwire/internal/timing"
)

// Overridden with -ldflags "-X main.pinName=PA5 -X main.calibration=netduino-plus2".
var (
	pinName     = "GPIO16"
	calibration = "rp2040-125mhz"
	pixels      = 8
)

func main() {
	cal, err := timing.LookupCalibration(calibration)
	if err != nil {
		fail(err)
	}
	// A table measured under another compiler is only a starting point here.
	cal = cal.Rebuild(cal.Target, timing.TinyGoOptimization)
	for _, d := range diag.Calibration(cal, timing.WS2812) {
		if d.Severity != diag.Info {
			println("pixelfw:", string(d.Severity), d.Code, d.Summary)
		}
	}
	ref, err := hal.ParsePinRef(pinName)
	if err != nil {
		fail(err)
	}
	pins := machinepin.Resolver{}
	if err := pins.Prepare(ref); err != nil {
		fail(err)
	}
	tx := pulse.New(pins, delay.New(cal), critical.Default())

	chain := pixel.NewChain(pixels)
	buf := make([]byte, 0, pixels*pulse.BytesPerPixel)
	frame := time.Second / 30
	for {
		for _, k := range []patterns.Kind{patterns.IndexSweep, patterns.RGBChannels, patterns.Rainbow} {
			r := patterns.NewRunner(patterns.Plan{Kind: k})
			for step := 0; step < 3*pixels && r.Step(chain.Pixels()); step++ {
				buf = pixel.OrderGRB.Encode(buf[:0], chain.Pixels())
				if err := tx.Transmit(buf, chain.Len(), ref); err != nil {
					fail(err)
				}
				// Well past the 50µs latch.
				time.Sleep(frame)
			}
		}
	}
}

func fail(err error) {
	for {
		println("pixelfw:", err.Error())
		time.Sleep(time.Second)
	}
}
