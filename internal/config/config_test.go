package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestLoadMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
driver: bitbang
gpio: mmio
pin: PB5
pixels: 25
calibration: netduino-plus2
grid:
  width: 5
  height: 5
  arrangement: LeftToRight_TopToBottom_Snake
mmio:
  base: 0x40020000
`), 0644))

	f, err := Load(path)
	require.NoError(t, err)

	c := Defaults()
	c.Merge(f)
	require.NoError(t, c.Validate())
	assert.Equal(t, "bitbang", c.Driver)
	assert.Equal(t, "PB5", c.Pin)
	assert.Equal(t, 25, c.Pixels)
	assert.Equal(t, 30, c.FPS, "unset fields keep defaults")
	assert.Equal(t, uint64(0x40020000), c.MMIO.Base)
	assert.Equal(t, "/dev/mem", c.MMIO.Dev)

	g, err := c.Layout()
	require.NoError(t, err)
	assert.Equal(t, 9, g.Index(0, 1))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	c := Defaults()
	c.Pattern = "solid"
	c.Color = "#ff8000"
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	got.keys = nil
	assert.Equal(t, c, got)
}

func TestMergeExplicitZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pixels: 0
latch_us: 0
spi:
  dev: ""
`), 0644))
	f, err := Load(path)
	require.NoError(t, err)

	c := Defaults()
	c.SPI.Dev = "/dev/spidev1.0"
	c.Merge(f)
	assert.Equal(t, 0, c.Pixels)
	assert.Equal(t, 0, c.LatchUs)
	assert.Equal(t, "", c.SPI.Dev)
	assert.Equal(t, 30, c.FPS, "absent keys keep the current value")
	assert.Equal(t, 2500000, c.SPI.SpeedHz)
	require.NoError(t, c.Validate())

	// A config built in code has no key set; zero still means unset.
	c = Defaults()
	c.Merge(&Config{FPS: 60})
	assert.Equal(t, 30, c.Pixels)
	assert.Equal(t, 60, c.FPS)
}

func TestLoadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	f, err := Load(path)
	require.NoError(t, err)

	c := Defaults()
	c.Merge(f)
	assert.Equal(t, Defaults(), c)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestValidateRejects(t *testing.T) {
	var tests = []struct {
		Name   string
		Mutate func(*Config)
		Field  string
	}{
		{"driver", func(c *Config) { c.Driver = "pwm" }, "driver"},
		{"gpio", func(c *Config) { c.GPIO = "sysfs" }, "gpio"},
		{"pin", func(c *Config) { c.Pin = "PZ1" }, "pin"},
		{"pixels", func(c *Config) { c.Pixels = -1 }, "pixels"},
		{"order", func(c *Config) { c.ColorOrder = "RRB" }, "color_order"},
		{"protocol", func(c *Config) { c.Protocol = "apa102" }, "protocol"},
		{"calibration", func(c *Config) { c.Calibration = "esp32" }, "calibration"},
		{"fps", func(c *Config) { c.FPS = 0 }, "fps"},
		{"pattern", func(c *Config) { c.Pattern = "plasma" }, "pattern"},
		{"color", func(c *Config) { c.Color = "orange" }, "color"},
		{"grid size", func(c *Config) {
			c.Grid = Grid{Width: 4, Height: 4, Arrangement: "LeftToRight_TopToBottom_Zigzag"}
		}, "grid"},
		{"grid arrangement", func(c *Config) {
			c.Grid = Grid{Width: 5, Height: 6, Arrangement: "Up_Down_Snake"}
		}, "grid"},
	}
	for _, v := range tests {
		t.Run(v.Name, func(t *testing.T) {
			c := Defaults()
			v.Mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), v.Field+":")
		})
	}
}
