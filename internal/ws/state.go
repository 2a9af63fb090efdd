package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/pixelwire/internal/config"
	diag "github.com/coreman2200/pixelwire/internal/diagnostics"
	"github.com/coreman2200/pixelwire/internal/layout"
	"github.com/coreman2200/pixelwire/internal/led"
	"github.com/coreman2200/pixelwire/internal/patterns"
	"github.com/coreman2200/pixelwire/internal/pixel"
)

const writeWait = 200 * time.Millisecond

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

type State struct {
	mu sync.RWMutex
	// writeMu is taken before mu and held through the driver write, so frames
	// reach the strip in frame id order.
	writeMu sync.Mutex

	Count int
	Grid  *layout.Grid
	FPS   int

	Driver        led.Driver
	CurrentDriver string
	// Startup is pushed to every diagnostics client on connect.
	Startup []diag.Diagnostic

	// Config and ConfigPath, when both set, receive control changes.
	Config     *config.Config
	ConfigPath string

	Clock clock.Clock
	Log   zerolog.Logger

	px        []pixel.Color
	rgb       []byte
	frameID   uint64
	startTime time.Time
	runner    *patterns.Runner
	plan      patterns.Plan
	// manual is set by a raw frame and holds the pattern until the next
	// control message picks one.
	manual bool

	clients     map[*client]bool
	diagClients map[*client]bool
	upgrader    websocket.Upgrader
	fpsChanged  chan struct{}
}

func NewState(count, fps int, plan patterns.Plan, clk clock.Clock, log zerolog.Logger) *State {
	if clk == nil {
		clk = clock.New()
	}
	return &State{
		Count:       count,
		FPS:         fps,
		Clock:       clk,
		Log:         log,
		px:          make([]pixel.Color, count),
		rgb:         make([]byte, count*3),
		startTime:   clk.Now(),
		runner:      patterns.NewRunner(plan),
		plan:        plan,
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		fpsChanged:  make(chan struct{}, 1),
	}
}

// RunRenderLoop renders at FPS until ctx is done.
func (s *State) RunRenderLoop(ctx context.Context) {
	ticker := s.Clock.Ticker(s.period())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.fpsChanged:
			ticker.Reset(s.period())
		case <-ticker.C:
			s.Tick()
		}
	}
}

func (s *State) period() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Second / time.Duration(max(1, s.FPS))
}

// Tick renders and writes one pattern frame. It does nothing while a raw
// frame holds the strip.
func (s *State) Tick() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.manual || s.runner == nil {
		s.mu.Unlock()
		return
	}
	var done *diag.Diagnostic
	if !s.runner.Step(s.px) {
		done = &diag.Diagnostic{Severity: diag.Info, Code: "PATTERN.DONE", Summary: "Pattern complete",
			Detail: string(s.runner.Kind())}
		s.plan = patterns.Plan{Kind: patterns.Off}
		s.runner = patterns.NewRunner(s.plan)
	}
	s.rgb = pixel.OrderRGB.Encode(s.rgb[:0], s.px)
	buf, id, drv := s.nextFrameLocked()
	s.mu.Unlock()

	s.write(drv, buf, id)
	if done != nil {
		s.pushDiag(*done)
	}
}

func (s *State) nextFrameLocked() ([]byte, uint64, led.Driver) {
	s.frameID++
	return append([]byte{}, s.rgb...), s.frameID, s.Driver
}

func (s *State) write(drv led.Driver, buf []byte, id uint64) {
	if drv != nil {
		if err := drv.Write(buf); err != nil {
			s.Log.Warn().Err(err).Uint64("frame_id", id).Msg("driver write")
		}
	}
	s.broadcastFrame(buf, id)
}

// WriteFrame sends a raw RGB frame and suspends the pattern.
func (s *State) WriteFrame(rgb []byte) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if len(rgb) != s.Count*3 {
		s.mu.Unlock()
		return false
	}
	s.manual = true
	copy(s.rgb, rgb)
	buf, id, drv := s.nextFrameLocked()
	s.mu.Unlock()

	s.write(drv, buf, id)
	return true
}

func (s *State) register(w http.ResponseWriter, r *http.Request, set map[*client]bool) (*client, bool) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Debug().Err(err).Str("path", r.URL.Path).Msg("upgrade")
		return nil, false
	}
	c := &client{conn: conn}
	s.mu.Lock()
	set[c] = true
	s.mu.Unlock()
	return c, true
}

func (s *State) unregister(c *client, set map[*client]bool) {
	s.mu.Lock()
	delete(set, c)
	s.mu.Unlock()
	c.conn.Close()
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	c, ok := s.register(w, r, s.clients)
	if !ok {
		return
	}
	s.sendTopology(c)

	go func() {
		defer s.unregister(c, s.clients)
		for {
			mt, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			if !s.WriteFrame(data) {
				s.pushDiag(diag.Diagnostic{
					Severity: diag.Warn, Code: "FRAME.LENGTH", Summary: "Frame length does not match pixel count",
					Evidence: map[string]any{"got": len(data), "want": s.Count * 3},
				})
			}
		}
	}()
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	c, ok := s.register(w, r, s.diagClients)
	if !ok {
		return
	}
	for _, d := range s.Startup {
		b, _ := json.Marshal(d)
		_ = c.send(b)
	}
	go func() {
		defer s.unregister(c, s.diagClients)
		for {
			if _, _, err := c.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Control is the message accepted on /control. Absent fields are unchanged.
type Control struct {
	Pattern *string `json:"pattern,omitempty"`
	FPS     *int    `json:"fps,omitempty"`
	Color   *string `json:"color,omitempty"`
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Control
		if err := json.Unmarshal(data, &msg); err != nil {
			s.pushDiag(diag.Diagnostic{Severity: diag.Warn, Code: "CONTROL.PARSE", Summary: "Malformed control message",
				Detail: err.Error()})
			continue
		}
		for _, d := range s.ApplyControl(msg) {
			s.pushDiag(d)
		}
		s.sendTopology(c)
	}
}

// ApplyControl updates the running state and returns what should be reported.
func (s *State) ApplyControl(msg Control) []diag.Diagnostic {
	var out []diag.Diagnostic
	s.mu.Lock()
	plan := s.plan
	changed := false
	if msg.Color != nil {
		if col, err := patterns.ParseColor(*msg.Color); err != nil {
			out = append(out, diag.Diagnostic{Severity: diag.Warn, Code: "CONTROL.COLOR", Summary: "Invalid color",
				Detail: err.Error()})
		} else {
			plan.Color = col
			changed = true
		}
	}
	if msg.Pattern != nil {
		if k, err := patterns.ParseKind(*msg.Pattern); err != nil {
			out = append(out, diag.Diagnostic{Severity: diag.Warn, Code: "PATTERN.UNKNOWN", Summary: "Unknown pattern",
				Evidence: map[string]any{"name": *msg.Pattern}})
		} else {
			plan.Kind = k
			changed = true
			out = append(out, diag.Diagnostic{Severity: diag.Info, Code: "PATTERN.RUNNING", Summary: "Running pattern",
				Detail: string(k)})
		}
	}
	if changed {
		s.plan = plan
		s.runner = patterns.NewRunner(plan)
		s.manual = false
	}
	fpsChanged := false
	if msg.FPS != nil && *msg.FPS > 0 && *msg.FPS != s.FPS {
		s.FPS = *msg.FPS
		fpsChanged = true
	}
	s.saveConfigLocked()
	s.mu.Unlock()

	if fpsChanged {
		select {
		case s.fpsChanged <- struct{}{}:
		default:
		}
	}
	return out
}

func (s *State) saveConfigLocked() {
	if s.Config == nil || s.ConfigPath == "" {
		return
	}
	s.Config.FPS = s.FPS
	s.Config.Pattern = string(s.plan.Kind)
	if s.plan.Kind == patterns.Solid {
		s.Config.Color = s.plan.Color.Hex()
	}
	if err := config.Save(s.ConfigPath, s.Config); err != nil {
		s.Log.Warn().Err(err).Str("path", s.ConfigPath).Msg("save config")
	}
}

// Health is the /health body.
type Health struct {
	FrameID uint64  `json:"frame_id"`
	Uptime  float64 `json:"uptime_s"`
	Count   int     `json:"count"`
	FPS     int     `json:"fps"`
	Driver  string  `json:"driver"`
	Pattern string  `json:"pattern"`
	Manual  bool    `json:"manual"`
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := Health{
		FrameID: s.frameID,
		Uptime:  s.Clock.Since(s.startTime).Seconds(),
		Count:   s.Count,
		FPS:     s.FPS,
		Driver:  s.CurrentDriver,
		Pattern: string(s.plan.Kind),
		Manual:  s.manual,
	}
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type gridTopology struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Arrangement string `json:"arrangement"`
}

// Topology is sent to frame and control clients.
type Topology struct {
	Count    int             `json:"count"`
	Grid     *gridTopology   `json:"grid,omitempty"`
	Driver   string          `json:"driver"`
	Pattern  string          `json:"pattern"`
	FPS      int             `json:"fps"`
	Patterns []patterns.Kind `json:"patterns"`
}

func (s *State) sendTopology(c *client) {
	s.mu.RLock()
	top := Topology{
		Count:    s.Count,
		Driver:   s.CurrentDriver,
		Pattern:  string(s.plan.Kind),
		FPS:      s.FPS,
		Patterns: patterns.Kinds(),
	}
	if s.Grid != nil {
		top.Grid = &gridTopology{Width: s.Grid.Width, Height: s.Grid.Height, Arrangement: s.Grid.Arrangement.String()}
	}
	s.mu.RUnlock()
	b, _ := json.Marshal(top)
	_ = c.send(b)
}

// Frame is the per-frame message pushed on /ws.
type Frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

func (s *State) broadcastFrame(rgb []byte, id uint64) {
	b, _ := json.Marshal(Frame{T: s.Clock.Now().UnixNano(), FrameID: id, RGB: rgb})
	for _, c := range s.snapshot(s.clients) {
		if err := c.send(b); err != nil {
			s.Log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	for _, c := range s.snapshot(s.diagClients) {
		_ = c.send(b)
	}
}

func (s *State) snapshot(set map[*client]bool) []*client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}
