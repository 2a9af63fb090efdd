package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/pixelwire/internal/config"
	diag "github.com/coreman2200/pixelwire/internal/diagnostics"
	"github.com/coreman2200/pixelwire/internal/led"
	"github.com/coreman2200/pixelwire/internal/patterns"
	"github.com/coreman2200/pixelwire/internal/pixel"
	"github.com/coreman2200/pixelwire/internal/timing"
)

func newTestState(t *testing.T, count int, plan patterns.Plan) (*State, *led.Sim, *clock.Mock, *httptest.Server) {
	mock := clock.NewMock()
	sim := led.NewSim(zerolog.Nop())
	s := NewState(count, 30, plan, mock, zerolog.Nop())
	s.Driver = sim
	s.CurrentDriver = "sim"

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return s, sim, mock, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestTickWritesPattern(t *testing.T) {
	s, sim, _, _ := newTestState(t, 2, patterns.Plan{Kind: patterns.RGBChannels})

	s.Tick()
	assert.Equal(t, []byte{0xFF, 0, 0, 0xFF, 0, 0}, sim.Last())
	s.Tick()
	assert.Equal(t, []byte{0, 0xFF, 0, 0, 0xFF, 0}, sim.Last())
}

func TestIndexSweepFinishes(t *testing.T) {
	s, sim, _, srv := newTestState(t, 1, patterns.Plan{Kind: patterns.IndexSweep})
	d := dial(t, srv, "/diag")
	// Registration happens in the handler; wait until it is visible.
	require.Eventually(t, func() bool { return len(s.snapshot(s.diagClients)) == 1 }, time.Second, time.Millisecond)

	s.Tick()
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF}, sim.Last())
	s.Tick()
	assert.Equal(t, []byte{0, 0, 0}, sim.Last())

	var got diag.Diagnostic
	readJSON(t, d, &got)
	assert.Equal(t, "PATTERN.DONE", got.Code)
	assert.Equal(t, string(patterns.IndexSweep), got.Detail)
}

func TestRawFrameSuspendsPattern(t *testing.T) {
	s, sim, _, srv := newTestState(t, 2, patterns.Plan{Kind: patterns.Rainbow})
	conn := dial(t, srv, "/ws")

	var top Topology
	readJSON(t, conn, &top)
	assert.Equal(t, 2, top.Count)
	assert.Equal(t, "sim", top.Driver)
	assert.Equal(t, "rainbow", top.Pattern)

	raw := []byte{1, 2, 3, 4, 5, 6}
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, raw))

	var f Frame
	readJSON(t, conn, &f)
	assert.Equal(t, raw, f.RGB)
	assert.EqualValues(t, 1, f.FrameID)
	assert.Equal(t, raw, sim.Last())

	s.Tick()
	assert.Equal(t, raw, sim.Last(), "pattern stays suspended")
	assert.EqualValues(t, 1, sim.Frames())
}

func TestRawFrameWrongLength(t *testing.T) {
	s, sim, _, _ := newTestState(t, 2, patterns.Plan{Kind: patterns.Off})
	assert.False(t, s.WriteFrame([]byte{1, 2, 3}))
	assert.Zero(t, sim.Frames())
}

func TestControlSetsPattern(t *testing.T) {
	s, sim, _, srv := newTestState(t, 2, patterns.Plan{Kind: patterns.Off})
	s.Config = config.Defaults()
	s.ConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	s.WriteFrame(make([]byte, 6))

	conn := dial(t, srv, "/control")
	require.NoError(t, conn.WriteJSON(map[string]any{"pattern": "solid", "color": "#ff0000", "fps": 60}))

	var top Topology
	readJSON(t, conn, &top)
	assert.Equal(t, "solid", top.Pattern)
	assert.Equal(t, 60, top.FPS)

	s.Tick()
	assert.Equal(t, []byte{0xFF, 0, 0, 0xFF, 0, 0}, sim.Last())

	saved, err := config.Load(s.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "solid", saved.Pattern)
	assert.Equal(t, "#ff0000", saved.Color)
	assert.Equal(t, 60, saved.FPS)
}

func TestApplyControlRejects(t *testing.T) {
	s, _, _, _ := newTestState(t, 1, patterns.Plan{Kind: patterns.Rainbow})
	bad := "plasma"
	ds := s.ApplyControl(Control{Pattern: &bad})
	require.Len(t, ds, 1)
	assert.Equal(t, "PATTERN.UNKNOWN", ds[0].Code)

	color := "nope"
	ds = s.ApplyControl(Control{Color: &color})
	require.Len(t, ds, 1)
	assert.Equal(t, "CONTROL.COLOR", ds[0].Code)
	assert.Equal(t, patterns.Rainbow, s.plan.Kind)
}

func TestDiagPushesStartup(t *testing.T) {
	s, _, _, srv := newTestState(t, 1, patterns.Plan{})
	s.Startup = diag.Calibration(timing.NetduinoPlus2, timing.WS2812)

	conn := dial(t, srv, "/diag")
	var got diag.Diagnostic
	readJSON(t, conn, &got)
	assert.Equal(t, "CALIB.OK", got.Code)
}

func TestHealth(t *testing.T) {
	s, _, mock, srv := newTestState(t, 3, patterns.Plan{Kind: patterns.Solid})
	s.Tick()
	mock.Add(2 * time.Second)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var h Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, Health{FrameID: 1, Uptime: 2, Count: 3, FPS: 30, Driver: "sim", Pattern: "solid"}, h)
}

func TestRenderLoopTicks(t *testing.T) {
	s, sim, mock, _ := newTestState(t, 1, patterns.Plan{Kind: patterns.RGBChannels})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.RunRenderLoop(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		mock.Add(time.Second / 30)
		return sim.Frames() >= 2
	}, 2*time.Second, time.Millisecond)

	cancel()
	<-done
}

// gatedDriver blocks the first Write until release is closed.
type gatedDriver struct {
	mu      sync.Mutex
	frames  [][]byte
	entered chan struct{}
	release chan struct{}
	first   bool
}

func (g *gatedDriver) Write(rgb []byte) error {
	g.mu.Lock()
	first := !g.first
	g.first = true
	g.mu.Unlock()
	if first {
		close(g.entered)
		<-g.release
	}
	g.mu.Lock()
	g.frames = append(g.frames, append([]byte(nil), rgb...))
	g.mu.Unlock()
	return nil
}

func (g *gatedDriver) Close() error { return nil }

func TestRawFrameNotOvertakenByTick(t *testing.T) {
	s, _, _, _ := newTestState(t, 1, patterns.Plan{Kind: patterns.Solid, Color: pixel.Red})
	g := &gatedDriver{entered: make(chan struct{}), release: make(chan struct{})}
	s.Driver = g

	ticked := make(chan struct{})
	go func() {
		s.Tick()
		close(ticked)
	}()
	<-g.entered

	raw := []byte{1, 2, 3}
	wrote := make(chan bool)
	go func() { wrote <- s.WriteFrame(raw) }()

	// The raw frame must wait for the pattern frame already on the wire.
	select {
	case <-wrote:
		t.Fatal("raw frame written while a pattern frame was in flight")
	case <-time.After(20 * time.Millisecond):
	}
	close(g.release)
	<-ticked
	require.True(t, <-wrote)

	s.Tick()
	g.mu.Lock()
	defer g.mu.Unlock()
	assert.Equal(t, [][]byte{{0xFF, 0, 0}, raw}, g.frames, "strip ends on the raw frame")
}
