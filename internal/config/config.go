package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/pixelwire/internal/hal"
	"github.com/coreman2200/pixelwire/internal/layout"
	"github.com/coreman2200/pixelwire/internal/patterns"
	"github.com/coreman2200/pixelwire/internal/pixel"
	"github.com/coreman2200/pixelwire/internal/timing"
)

type Grid struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Arrangement string `yaml:"arrangement"` // e.g. LeftToRight_TopToBottom_Snake
}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0, empty for the first port
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2500000
}

type MMIO struct {
	Dev   string `yaml:"dev"`   // e.g. /dev/mem
	Base  uint64 `yaml:"base"`  // GPIOA physical address
	Banks int    `yaml:"banks"` // number of mapped ports
}

type Config struct {
	Driver      string `yaml:"driver"` // "bitbang" | "spi" | "console" | "sim"
	GPIO        string `yaml:"gpio"`   // bitbang backend: "periph" | "mmio"
	Pin         string `yaml:"pin"`    // "GPIO18", "PA5", "18"
	Pixels      int    `yaml:"pixels"`
	ColorOrder  string `yaml:"color_order"`
	Protocol    string `yaml:"protocol"`
	Calibration string `yaml:"calibration"`
	LatchUs     int    `yaml:"latch_us"`
	FPS         int    `yaml:"fps"`
	Pattern     string `yaml:"pattern"`
	Color       string `yaml:"color,omitempty"`

	Grid Grid `yaml:"grid,omitempty"`
	SPI  SPI  `yaml:"spi,omitempty"`
	MMIO MMIO `yaml:"mmio,omitempty"`

	Addr string `yaml:"addr"`

	// keys holds the dotted paths present in the loaded file, e.g. "grid.width".
	keys map[string]bool
}

var Drivers = []string{"bitbang", "spi", "console", "sim"}

// Defaults is a 30 pixel WS2812 strip on GPIO18, simulated.
func Defaults() *Config {
	return &Config{
		Driver:      "sim",
		GPIO:        "periph",
		Pin:         "GPIO18",
		Pixels:      30,
		ColorOrder:  string(pixel.OrderGRB),
		Protocol:    timing.WS2812.Name,
		Calibration: timing.HostSpin.Target,
		LatchUs:     int(timing.WS2812.Latch.Microseconds()),
		FPS:         30,
		Pattern:     string(patterns.Rainbow),
		SPI:         SPI{SpeedHz: 2500000},
		MMIO:        MMIO{Dev: "/dev/mem", Base: 0x40020000, Banks: 9},
		Addr:        ":8080",
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	c := Config{keys: map[string]bool{}}
	if len(doc.Content) == 0 {
		return &c, nil
	}
	if err := doc.Decode(&c); err != nil {
		return nil, err
	}
	collectKeys(doc.Content[0], "", c.keys)
	return &c, nil
}

func collectKeys(n *yaml.Node, prefix string, keys map[string]bool) {
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := prefix + n.Content[i].Value
		keys[k] = true
		collectKeys(n.Content[i+1], k+".", keys)
	}
}

// has reports whether key was present in the file c was loaded from. For a
// config built in code it reports whether the field is non-zero.
func (c *Config) has(key string, zero bool) bool {
	if c.keys != nil {
		return c.keys[key]
	}
	return !zero
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Merge copies every field set in o over c. A field loaded from a file counts
// as set when its key is present, so zero values can be expressed.
func (c *Config) Merge(o *Config) {
	if o == nil {
		return
	}
	setStr := func(key string, dst *string, v string) {
		if o.has(key, v == "") {
			*dst = v
		}
	}
	setInt := func(key string, dst *int, v int) {
		if o.has(key, v == 0) {
			*dst = v
		}
	}
	setStr("driver", &c.Driver, o.Driver)
	setStr("gpio", &c.GPIO, o.GPIO)
	setStr("pin", &c.Pin, o.Pin)
	setInt("pixels", &c.Pixels, o.Pixels)
	setStr("color_order", &c.ColorOrder, o.ColorOrder)
	setStr("protocol", &c.Protocol, o.Protocol)
	setStr("calibration", &c.Calibration, o.Calibration)
	setInt("latch_us", &c.LatchUs, o.LatchUs)
	setInt("fps", &c.FPS, o.FPS)
	setStr("pattern", &c.Pattern, o.Pattern)
	setStr("color", &c.Color, o.Color)
	setInt("grid.width", &c.Grid.Width, o.Grid.Width)
	setInt("grid.height", &c.Grid.Height, o.Grid.Height)
	setStr("grid.arrangement", &c.Grid.Arrangement, o.Grid.Arrangement)
	setStr("spi.dev", &c.SPI.Dev, o.SPI.Dev)
	setInt("spi.speed_hz", &c.SPI.SpeedHz, o.SPI.SpeedHz)
	setStr("mmio.dev", &c.MMIO.Dev, o.MMIO.Dev)
	if o.has("mmio.base", o.MMIO.Base == 0) {
		c.MMIO.Base = o.MMIO.Base
	}
	setInt("mmio.banks", &c.MMIO.Banks, o.MMIO.Banks)
	setStr("addr", &c.Addr, o.Addr)
}

// Validate reports the first field that cannot be used.
func (c *Config) Validate() error {
	known := false
	for _, d := range Drivers {
		known = known || d == c.Driver
	}
	if !known {
		return fmt.Errorf("driver: unknown %q", c.Driver)
	}
	if c.GPIO != "periph" && c.GPIO != "mmio" {
		return fmt.Errorf("gpio: unknown backend %q", c.GPIO)
	}
	if _, err := hal.ParsePinRef(c.Pin); err != nil {
		return fmt.Errorf("pin: %w", err)
	}
	if c.Pixels < 0 {
		return fmt.Errorf("pixels: %d is negative", c.Pixels)
	}
	if _, err := pixel.ParseOrder(c.ColorOrder); err != nil {
		return fmt.Errorf("color_order: %w", err)
	}
	if _, err := timing.LookupProtocol(c.Protocol); err != nil {
		return fmt.Errorf("protocol: %w", err)
	}
	if _, err := timing.LookupCalibration(c.Calibration); err != nil {
		return fmt.Errorf("calibration: %w", err)
	}
	if c.LatchUs < 0 {
		return fmt.Errorf("latch_us: %d is negative", c.LatchUs)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps: %d must be positive", c.FPS)
	}
	if _, err := patterns.ParseKind(c.Pattern); err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	if c.Color != "" {
		if _, err := patterns.ParseColor(c.Color); err != nil {
			return fmt.Errorf("color: %w", err)
		}
	}
	if c.Grid.Arrangement != "" {
		g, err := c.Layout()
		if err != nil {
			return fmt.Errorf("grid: %w", err)
		}
		if g.Count() != c.Pixels {
			return fmt.Errorf("grid: %dx%d does not match %d pixels", g.Width, g.Height, c.Pixels)
		}
	}
	return nil
}

// Layout builds the configured grid.
func (c *Config) Layout() (layout.Grid, error) {
	a, err := layout.ParseArrangement(c.Grid.Arrangement)
	if err != nil {
		return layout.Grid{}, err
	}
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return layout.Grid{}, fmt.Errorf("invalid size %dx%d", c.Grid.Width, c.Grid.Height)
	}
	return layout.Grid{Width: c.Grid.Width, Height: c.Grid.Height, Arrangement: a}, nil
}
