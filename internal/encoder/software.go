package encoder

import (
	"errors"
	"sync"
)

// softwareBackend is the no-hardware-encoder-available fallback. It is a
// passthrough, same as the teacher's placeholder NVENC/software backends:
// it stamps keyframe bookkeeping correctly (so session/transport-level
// logic that inspects the keyframe flag behaves the same) without running
// a real encode, until a real x264/libaom/SVT binding is wired in.
type softwareBackend struct {
	mu      sync.Mutex
	cfg     Config
	opts    codecOptions
	gopPos  uint32
}

func newSoftwareBackend(cfg Config) (backend, error) {
	return &softwareBackend{cfg: cfg, opts: optionsFor(cfg.Codec)}, nil
}

func (s *softwareBackend) Encode(nv12 []byte, keyframeForced bool) ([]byte, bool, error) {
	if len(nv12) == 0 {
		return nil, false, errors.New("encoder: empty frame")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	isKeyframe := keyframeForced || s.opts.ForcedIDR && s.gopPos == 0
	if s.cfg.KeyframeInterval > 0 {
		isKeyframe = isKeyframe || s.gopPos%s.cfg.KeyframeInterval == 0
	}
	if isKeyframe {
		s.gopPos = 0
	}
	s.gopPos++

	out := make([]byte, len(nv12))
	copy(out, nv12)
	return out, isKeyframe, nil
}

func (s *softwareBackend) SetBitrate(bitrate uint32) error {
	s.mu.Lock()
	s.cfg.Bitrate = bitrate
	s.mu.Unlock()
	return nil
}

func (s *softwareBackend) SetFPS(fps uint32) error {
	s.mu.Lock()
	s.cfg.FPS = fps
	s.mu.Unlock()
	return nil
}

func (s *softwareBackend) SetDimensions(width, height int) error {
	s.mu.Lock()
	s.cfg.Width, s.cfg.Height = width, height
	s.mu.Unlock()
	return nil
}

func (s *softwareBackend) Close() error    { return nil }
func (s *softwareBackend) Name() string    { return "software" }
func (s *softwareBackend) IsHardware() bool { return false }

var _ backend = (*softwareBackend)(nil)
