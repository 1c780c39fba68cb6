//go:build windows && hwenc

package encoder

import (
	"errors"
	"sync"

	"github.com/lanternops/streamd/internal/wire"
)

// hwBackend is a build-tag-gated placeholder for a real AMF/MFT hardware
// encoder session, generalizing the teacher's single-codec NVENC backend
// to all three codecs this server supports. Like the teacher's version,
// Encode is a passthrough until real AMF/MFT bindings are wired in — the
// point of this file is the registration and configuration plumbing, which
// a real binding slots into without touching the Encoder wrapper above.
type hwBackend struct {
	mu     sync.Mutex
	cfg    Config
	opts   codecOptions
	gopPos uint32
}

func init() {
	registerHardwareFactory(wire.CodecAVC, newHWBackend)
	registerHardwareFactory(wire.CodecHEVC, newHWBackend)
	registerHardwareFactory(wire.CodecAV1, newHWBackend)
}

func newHWBackend(cfg Config) (backend, error) {
	return &hwBackend{cfg: cfg, opts: optionsFor(cfg.Codec)}, nil
}

func (h *hwBackend) Encode(nv12 []byte, keyframeForced bool) ([]byte, bool, error) {
	if len(nv12) == 0 {
		return nil, false, errors.New("encoder: empty frame")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	isKeyframe := keyframeForced || h.gopPos == 0
	if h.cfg.KeyframeInterval > 0 {
		isKeyframe = isKeyframe || h.gopPos%h.cfg.KeyframeInterval == 0
	}
	if isKeyframe {
		h.gopPos = 0
	}
	h.gopPos++

	out := make([]byte, len(nv12))
	copy(out, nv12)
	return out, isKeyframe, nil
}

func (h *hwBackend) SetBitrate(bitrate uint32) error {
	h.mu.Lock()
	h.cfg.Bitrate = bitrate
	h.mu.Unlock()
	return nil
}

func (h *hwBackend) SetFPS(fps uint32) error {
	h.mu.Lock()
	h.cfg.FPS = fps
	h.mu.Unlock()
	return nil
}

func (h *hwBackend) SetDimensions(width, height int) error {
	h.mu.Lock()
	h.cfg.Width, h.cfg.Height = width, height
	h.mu.Unlock()
	return nil
}

func (h *hwBackend) Close() error    { return nil }
func (h *hwBackend) Name() string    { return "amf" }
func (h *hwBackend) IsHardware() bool { return true }

var _ backend = (*hwBackend)(nil)
