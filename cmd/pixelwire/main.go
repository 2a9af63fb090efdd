package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/pixelwire/internal/config"
	"github.com/coreman2200/pixelwire/internal/critical"
	"github.com/coreman2200/pixelwire/internal/delay"
	diag "github.com/coreman2200/pixelwire/internal/diagnostics"
	"github.com/coreman2200/pixelwire/internal/hal"
	"github.com/coreman2200/pixelwire/internal/hal/mmio"
	"github.com/coreman2200/pixelwire/internal/hal/periphgpio"
	"github.com/coreman2200/pixelwire/internal/led"
	"github.com/coreman2200/pixelwire/internal/patterns"
	"github.com/coreman2200/pixelwire/internal/pixel"
	"github.com/coreman2200/pixelwire/internal/pulse"
	"github.com/coreman2200/pixelwire/internal/timing"
	"github.com/coreman2200/pixelwire/internal/ws"
)

func main() {
	d := config.Defaults()

	// ---- Flags (config.yaml overrides any field it sets) ----
	var (
		driver      = flag.String("driver", d.Driver, "driver: bitbang | spi | console | sim")
		gpioBackend = flag.String("gpio", d.GPIO, "bitbang pin backend: periph | mmio")
		pin         = flag.String("pin", d.Pin, "data pin: GPIO18, PA5 or 18")
		pixels      = flag.Int("pixels", d.Pixels, "number of pixels on the chain")
		colorOrder  = flag.String("color-order", d.ColorOrder, "wire channel order (GRB, RGB, ...)")
		protocol    = flag.String("protocol", d.Protocol, "timing protocol: ws2812 | ws2812b")
		calibration = flag.String("calibration", d.Calibration, "delay calibration name")
		latchUs     = flag.Int("latch-us", d.LatchUs, "minimum idle-low gap between frames (µs)")
		fps         = flag.Int("fps", d.FPS, "target frames per second")
		pattern     = flag.String("pattern", d.Pattern, "startup pattern")
		color       = flag.String("color", d.Color, "solid pattern color (#rrggbb)")
		spiDev      = flag.String("spi-dev", d.SPI.Dev, "SPI port name, empty for the first one")
		spiSpeed    = flag.Int("spi-speed", d.SPI.SpeedHz, "SPI clock (Hz)")
		addr        = flag.String("addr", d.Addr, "HTTP listen address")
		configPath  = flag.String("config", "config.yaml", "path to config.yaml")
		simOnly     = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		verbose     = flag.BoolP("verbose", "v", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Effective params: defaults <- flags <- config.yaml ----
	cfg := d
	cfg.Driver = *driver
	cfg.GPIO = *gpioBackend
	cfg.Pin = *pin
	cfg.Pixels = *pixels
	cfg.ColorOrder = *colorOrder
	cfg.Protocol = *protocol
	cfg.Calibration = *calibration
	cfg.LatchUs = *latchUs
	cfg.FPS = *fps
	cfg.Pattern = *pattern
	cfg.Color = *color
	cfg.SPI.Dev = *spiDev
	cfg.SPI.SpeedHz = *spiSpeed
	cfg.Addr = *addr

	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	} else {
		cfg.Merge(c)
	}
	if *simOnly {
		cfg.Driver = "sim"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	plan, err := startupPlan(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid pattern")
	}

	// ---- State ----
	state := ws.NewState(cfg.Pixels, cfg.FPS, plan, nil, log.Logger.With().Str("component", "ws").Logger())
	state.Config = cfg
	state.ConfigPath = *configPath
	if cfg.Grid.Arrangement != "" {
		g, _ := cfg.Layout()
		state.Grid = &g
	}

	// ---- Driver selection; hardware failures fall back to SIM ----
	drv, startup, err := openDriver(cfg)
	if err != nil {
		log.Warn().Err(err).Str("driver", cfg.Driver).Msg("driver init failed; falling back to SIM")
		cfg.Driver = "sim"
		drv = led.NewSim(log.Logger)
	}
	for _, dg := range startup {
		logDiagnostic(dg)
	}
	state.Driver = drv
	state.CurrentDriver = cfg.Driver
	state.Startup = startup

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", state.HandleFramesWS)
	mux.HandleFunc("/diag", state.HandleDiagWS)
	mux.HandleFunc("/control", state.HandleControlWS)
	mux.HandleFunc("/health", state.HandleHealth)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Run render loop & server ----
	go state.RunRenderLoop(ctx)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("driver", cfg.Driver).Int("pixels", cfg.Pixels).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if err := drv.Close(); err != nil {
		log.Warn().Err(err).Msg("driver close")
	}
}

func startupPlan(cfg *config.Config) (patterns.Plan, error) {
	k, err := patterns.ParseKind(cfg.Pattern)
	if err != nil {
		return patterns.Plan{}, err
	}
	plan := patterns.Plan{Kind: k, Color: pixel.White}
	if cfg.Color != "" {
		if plan.Color, err = patterns.ParseColor(cfg.Color); err != nil {
			return patterns.Plan{}, err
		}
	}
	return plan, nil
}

// openDriver builds the configured driver and the diagnostics worth showing
// at startup.
func openDriver(cfg *config.Config) (led.Driver, []diag.Diagnostic, error) {
	switch cfg.Driver {
	case "sim":
		return led.NewSim(log.Logger), nil, nil

	case "console":
		return led.NewConsole(cfg.Pixels), nil, nil

	case "spi":
		drv, err := led.OpenSPI(cfg.SPI.Dev, cfg.Pixels, physic.Frequency(cfg.SPI.SpeedHz)*physic.Hertz)
		return drv, nil, err

	case "bitbang":
		return openBitbang(cfg)
	}
	return nil, nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}

type pinBackend interface {
	hal.Resolver
	hal.Preparer
}

func openBitbang(cfg *config.Config) (led.Driver, []diag.Diagnostic, error) {
	proto, err := timing.LookupProtocol(cfg.Protocol)
	if err != nil {
		return nil, nil, err
	}
	cal, err := timing.LookupCalibration(cfg.Calibration)
	if err != nil {
		return nil, nil, err
	}
	ds := diag.Calibration(cal, proto)
	if diag.Worst(ds) == diag.Err {
		log.Warn().Str("calibration", cal.Target).Str("protocol", proto.Name).
			Msg("calibration out of tolerance; the chain may misread bits")
	}

	ref, err := hal.ParsePinRef(cfg.Pin)
	if err != nil {
		return nil, ds, err
	}
	order, err := pixel.ParseOrder(cfg.ColorOrder)
	if err != nil {
		return nil, ds, err
	}

	opts := led.BitbangOpts{
		Pin:       ref,
		NumPixels: cfg.Pixels,
		Order:     order,
		Latch:     time.Duration(cfg.LatchUs) * time.Microsecond,
	}
	var pins pinBackend
	switch cfg.GPIO {
	case "mmio":
		m, err := mmio.Open(cfg.MMIO.Dev, int64(cfg.MMIO.Base), cfg.MMIO.Banks)
		if err != nil {
			return nil, ds, err
		}
		pins, opts.Release = m, m
	default:
		r, err := periphgpio.Open()
		if err != nil {
			return nil, ds, err
		}
		pins = r
	}
	opts.Prepare = pins

	tx := pulse.New(pins, delay.New(cal), critical.Default())
	drv, err := led.NewBitbang(tx, opts)
	if err != nil && opts.Release != nil {
		_ = opts.Release.Close()
	}
	return drv, ds, err
}

func logDiagnostic(d diag.Diagnostic) {
	var ev *zerolog.Event
	switch d.Severity {
	case diag.Err:
		ev = log.Error()
	case diag.Warn:
		ev = log.Warn()
	default:
		ev = log.Debug()
	}
	ev.Str("code", d.Code).Str("detail", d.Detail).Interface("evidence", d.Evidence).Msg(d.Summary)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
