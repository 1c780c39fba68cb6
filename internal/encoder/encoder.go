// Package encoder wraps a hardware (or software-fallback) video encoder
// behind a single Encoder type, with backends selected by the same
// registration pattern the capture engine uses for platform backends.
package encoder

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lanternops/streamd/internal/wire"
)

var (
	ErrInvalidCodec   = errors.New("encoder: invalid codec")
	ErrInvalidBitrate = errors.New("encoder: invalid bitrate")
	ErrInvalidFPS     = errors.New("encoder: invalid fps")
	ErrNotInitialized = errors.New("encoder: not initialized")
)

// Config is the encoder's tunable state, mirroring EncodingSettingsPayload
// plus the dimensions the capture engine reports.
type Config struct {
	Codec            wire.Codec
	Bitrate          uint32
	FPS              uint32
	KeyframeInterval uint32
	Width            int
	Height           int
}

// DefaultConfig returns a valid baseline: H.264 at 4 Mb/s, 60 fps, a
// keyframe every 120 frames, with no dimensions set. The session does not
// use it; its own defaults are AV1 at 20 Mb/s.
func DefaultConfig() Config {
	return Config{
		Codec:            wire.CodecAVC,
		Bitrate:          4_000_000,
		FPS:              60,
		KeyframeInterval: 120,
	}
}

// backend is the per-codec, per-platform implementation. Backends receive
// NV12 frames (produced by the capture package's color conversion) and
// return an encoded access unit, or nil when the encoder is still buffering
// (e.g. waiting on a GOP boundary for some hardware encoders).
type backend interface {
	Encode(nv12 []byte, keyframeForced bool) ([]byte, bool, error)
	SetBitrate(bitrate uint32) error
	SetFPS(fps uint32) error
	SetDimensions(width, height int) error
	Close() error
	Name() string
	IsHardware() bool
}

type backendFactory func(cfg Config) (backend, error)

var (
	hardwareFactoriesMu sync.Mutex
	hardwareFactories   = map[wire.Codec][]backendFactory{}
)

// registerHardwareFactory registers factory for codec. Platform build-tagged
// files call this from init(), the same pattern the capture engine's
// teacher package used for its NVENC backend.
func registerHardwareFactory(codec wire.Codec, factory backendFactory) {
	hardwareFactoriesMu.Lock()
	defer hardwareFactoriesMu.Unlock()
	hardwareFactories[codec] = append(hardwareFactories[codec], factory)
}

// Encoder owns one backend for the lifetime of a session (or until a codec
// switch replaces it outright — see Reconfigure).
type Encoder struct {
	mu      sync.Mutex
	cfg     Config
	backend backend
}

// New selects a backend for cfg.Codec: a registered hardware factory if one
// accepts it, otherwise the software fallback.
func New(cfg Config) (*Encoder, error) {
	cfg.Codec = cfg.Codec.Normalize()
	if err := validate(cfg); err != nil {
		return nil, err
	}
	b, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	return &Encoder{cfg: cfg, backend: b}, nil
}

func newBackend(cfg Config) (backend, error) {
	hardwareFactoriesMu.Lock()
	factories := append([]backendFactory(nil), hardwareFactories[cfg.Codec]...)
	hardwareFactoriesMu.Unlock()
	for _, factory := range factories {
		if b, err := factory(cfg); err == nil && b != nil {
			return b, nil
		}
	}
	return newSoftwareBackend(cfg)
}

func validate(cfg Config) error {
	if !validCodec(cfg.Codec) {
		return fmt.Errorf("%w: %s", ErrInvalidCodec, cfg.Codec)
	}
	if cfg.Bitrate == 0 {
		return ErrInvalidBitrate
	}
	if cfg.FPS == 0 {
		return ErrInvalidFPS
	}
	return nil
}

func validCodec(c wire.Codec) bool {
	switch c {
	case wire.CodecAV1, wire.CodecAVC, wire.CodecHEVC:
		return true
	default:
		return false
	}
}

// Encode converts the input frame (already color-converted to NV12 by the
// caller) into an access unit. keyframeForced requests an IDR/sync frame
// regardless of the backend's normal GOP schedule — used for KeyframeRequest
// control messages and on session start.
func (e *Encoder) Encode(nv12 []byte, keyframeForced bool) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend == nil {
		return nil, false, ErrNotInitialized
	}
	return e.backend.Encode(nv12, keyframeForced)
}

// Reconfigure applies new encoder settings. A bitrate/FPS/dimension change
// is pushed to the existing backend; a codec change tears down the current
// backend and replaces it outright — codec switches are not something any
// real hardware encoder session can do in place.
func (e *Encoder) Reconfigure(cfg Config) error {
	cfg.Codec = cfg.Codec.Normalize()
	if err := validate(cfg); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if cfg.Codec != e.cfg.Codec {
		newBackend, err := newBackend(cfg)
		if err != nil {
			return err
		}
		old := e.backend
		e.backend = newBackend
		e.cfg = cfg
		if old != nil {
			if cerr := old.Close(); cerr != nil {
				slog.Warn("encoder: close previous backend", "error", cerr)
			}
		}
		return nil
	}

	if e.backend == nil {
		return ErrNotInitialized
	}
	if cfg.Bitrate != e.cfg.Bitrate {
		if err := e.backend.SetBitrate(cfg.Bitrate); err != nil {
			return err
		}
	}
	if cfg.FPS != e.cfg.FPS {
		if err := e.backend.SetFPS(cfg.FPS); err != nil {
			return err
		}
	}
	if cfg.Width != e.cfg.Width || cfg.Height != e.cfg.Height {
		if err := e.backend.SetDimensions(cfg.Width, cfg.Height); err != nil {
			return err
		}
	}
	e.cfg = cfg
	return nil
}

func (e *Encoder) Close() error {
	e.mu.Lock()
	b := e.backend
	e.backend = nil
	e.mu.Unlock()
	if b == nil {
		return nil
	}
	return b.Close()
}

func (e *Encoder) BackendName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend == nil {
		return ""
	}
	return e.backend.Name()
}

func (e *Encoder) IsHardware() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backend != nil && e.backend.IsHardware()
}

func (e *Encoder) Codec() wire.Codec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Codec
}
