package led

import (
	"sync"

	"github.com/rs/zerolog"
)

// Sim keeps the last frame and logs a line per write.
type Sim struct {
	mu     sync.Mutex
	log    zerolog.Logger
	last   []byte
	frames uint64
}

func NewSim(log zerolog.Logger) *Sim {
	return &Sim{log: log.With().Str("driver", "sim").Logger()}
}

func (s *Sim) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = append(s.last[:0], rgb...)
	s.frames++
	s.log.Trace().Uint64("frame", s.frames).Int("pixels", len(rgb)/3).Hex("head", head(rgb)).Msg("write")
	return nil
}

// Last returns a copy of the most recent frame.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...)
}

func (s *Sim) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *Sim) Close() error {
	s.log.Debug().Uint64("frames", s.Frames()).Msg("closed")
	return nil
}

func head(rgb []byte) []byte {
	if len(rgb) > 12 {
		return rgb[:12]
	}
	return rgb
}
