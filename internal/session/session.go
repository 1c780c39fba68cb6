// Package session drives one connected client from handshake to teardown:
// capture a frame, encode it, frame it onto the wire, drain control
// messages, repeat. One Session owns one Transport, one capture.Capturer
// and one encoder.Encoder for the lifetime of a client connection.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lanternops/streamd/internal/capture"
	"github.com/lanternops/streamd/internal/encoder"
	"github.com/lanternops/streamd/internal/input"
	"github.com/lanternops/streamd/internal/monitor"
	"github.com/lanternops/streamd/internal/transport"
	"github.com/lanternops/streamd/internal/wire"
)

const (
	defaultFPS     = 60
	minFPS         = 24
	maxFPS         = 120
	defaultBitrate = 20_000_000
	minBitrate     = 2_000_000
	maxBitrate     = 80_000_000
	minKeyframeSec = 1
	maxKeyframeSec = 10
	defKeyframeSec = 2

	// controlPollTimeout is zero so draining control messages never eats
	// into the current frame's time budget.
	controlPollTimeout = 0

	statsInterval = 5 * time.Second
)

// settings is the session's live encoding configuration, mirroring
// wire.EncodingSettingsPayload plus the derived keyframe-interval-in-frames
// the encoder actually wants.
type settings struct {
	codec        wire.Codec
	fps          uint32
	bitrate      uint32
	keyframeSecs uint32
}

func defaultSettings() settings {
	return settings{
		codec:        wire.CodecAV1,
		fps:          defaultFPS,
		bitrate:      defaultBitrate,
		keyframeSecs: defKeyframeSec,
	}
}

func (s settings) keyframeIntervalFrames() uint32 {
	return s.fps * s.keyframeSecs
}

// Config bundles everything a Session needs for one client connection.
type Config struct {
	ID        string
	Transport transport.Transport
	Monitors  *monitor.Registry
}

// Session runs a single client's capture-encode-send loop until its
// Transport closes or a fatal error occurs.
type Session struct {
	id        string
	t         transport.Transport
	monitors  *monitor.Registry
	injector  input.Injector

	monitorIndex uint32
	capturer     capture.Capturer
	enc          *encoder.Encoder
	settings     settings

	frameSeq uint32
	stats    stats
}

// New constructs a Session bound to the given monitor.Registry's index-0
// display. Callers must call Run to drive it.
func New(cfg Config) (*Session, error) {
	s := &Session{
		id:       cfg.ID,
		t:        cfg.Transport,
		monitors: cfg.Monitors,
		settings: defaultSettings(),
	}

	injector, err := input.New()
	if err != nil {
		slog.Warn("input injection unavailable, remote control disabled", "session", s.id, "error", err)
	} else {
		s.injector = injector
	}

	if err := s.bindMonitor(0); err != nil {
		return nil, fmt.Errorf("session %s: %w", s.id, err)
	}
	return s, nil
}

// bindMonitor (re)creates the capturer and encoder for monitorIndex. On
// failure the session's previous capturer/encoder are left untouched so a
// failed MonitorSelect degrades to a no-op rather than killing the session.
func (s *Session) bindMonitor(index uint32) error {
	capCfg := capture.Config{
		MonitorIndex: int(index),
		TimeoutMS:    captureTimeoutMS(s.settings.fps),
	}
	newCap, err := capture.New(capCfg)
	if err != nil {
		return fmt.Errorf("bind monitor %d: %w", index, err)
	}

	width, height := newCap.Bounds()
	newEnc, err := encoder.New(encoder.Config{
		Codec:            s.settings.codec,
		Bitrate:          s.settings.bitrate,
		FPS:              s.settings.fps,
		KeyframeInterval: s.settings.keyframeIntervalFrames(),
		Width:            width,
		Height:           height,
	})
	if err != nil {
		newCap.Close()
		return fmt.Errorf("bind monitor %d: encoder: %w", index, err)
	}

	if s.capturer != nil {
		s.capturer.Close()
	}
	if s.enc != nil {
		s.enc.Close()
	}
	s.capturer = newCap
	s.enc = newEnc
	s.monitorIndex = index

	if s.injector != nil {
		if d, ok := s.monitors.ByIndex(index); ok {
			s.injector.SetMonitorBounds(d.Left, d.Top, d.Width, d.Height)
		} else {
			s.injector.SetMonitorBounds(0, 0, uint32(width), uint32(height))
		}
	}
	return nil
}

// captureTimeoutMS mirrors original_source's ceil(1000/fps)+1 so a capture
// timeout almost never collides with the frame pacing deadline.
func captureTimeoutMS(fps uint32) int {
	if fps == 0 {
		fps = defaultFPS
	}
	return int((1000+fps-1)/fps) + 1
}

// Run blocks until the transport closes or a fatal error occurs. It sends
// the monitor list and initial encoding settings immediately, then loops:
// drain control, capture, encode, send, pace.
func (s *Session) Run() error {
	defer s.close()

	if err := s.sendMonitorList(); err != nil {
		return fmt.Errorf("session %s: send monitor list: %w", s.id, err)
	}
	if err := s.sendEncodingSettingsState(); err != nil {
		return fmt.Errorf("session %s: send initial settings: %w", s.id, err)
	}

	forceKeyframe := true
	lastStats := time.Now()

	for {
		alive, err := s.drainControl(&forceKeyframe)
		if err != nil {
			return fmt.Errorf("session %s: %w", s.id, err)
		}
		if !alive {
			slog.Info("client disconnected", "session", s.id)
			return nil
		}

		// Recomputed every iteration since applyEncodingSettings may have
		// just changed s.settings.fps.
		frameInterval := frameIntervalFor(s.settings.fps)
		frameStart := time.Now()

		frame, err := s.capturer.Capture()
		if errors.Is(err, capture.ErrDeviceLost) {
			slog.Warn("capture device lost, rebuilding capturer", "session", s.id, "index", s.monitorIndex)
			if rerr := s.bindMonitor(s.monitorIndex); rerr != nil {
				return fmt.Errorf("session %s: capture: %w", s.id, rerr)
			}
			forceKeyframe = true
			frame, err = s.capturer.Capture()
		}
		if err != nil {
			return fmt.Errorf("session %s: capture: %w", s.id, err)
		}
		if frame == nil {
			pace(frameStart, frameInterval)
			continue
		}
		requestingKF := forceKeyframe
		forceKeyframe = false

		if err := s.encodeAndSend(frame, requestingKF); err != nil {
			if errors.Is(err, transport.ErrClosed) {
				slog.Info("client disconnected mid-send", "session", s.id)
				return nil
			}
			return fmt.Errorf("session %s: %w", s.id, err)
		}

		if time.Since(lastStats) >= statsInterval {
			p := s.stats.payload(statsInterval.Seconds())
			slog.Info("stream stats", "session", s.id, "frames", p.FramesSent,
				"fps", p.CurrentFPS, "avgEncodeUs", p.AvgEncodeUs)
			if err := s.emitStats(); err != nil {
				if errors.Is(err, transport.ErrClosed) {
					return nil
				}
				slog.Warn("failed to send stats", "session", s.id, "error", err)
			}
			lastStats = time.Now()
			s.stats.reset()
		}

		pace(frameStart, frameInterval)
	}
}

func (s *Session) close() {
	if s.capturer != nil {
		s.capturer.Close()
	}
	if s.enc != nil {
		s.enc.Close()
	}
	if s.injector != nil {
		s.injector.Close()
	}
	s.t.Close()
}

func frameIntervalFor(fps uint32) time.Duration {
	if fps == 0 {
		fps = defaultFPS
	}
	return time.Second / time.Duration(fps)
}

// spinTail is how much of the frame budget pace reserves for a busy-wait
// tail instead of an OS sleep. A bare time.Sleep bottoms out at whatever
// granularity the OS scheduler ticks at (on Windows, ~15.6ms by default,
// well past the pacing bound's ±1ms 99th-percentile target even with
// EnableHighResTimer's 1ms nudge), so original_source sleeps off the bulk
// of the budget and then spins the last 1.5ms to land on the boundary.
const spinTail = 1500 * time.Microsecond

// pace sleeps off the bulk of frameInterval since frameStart, then
// busy-waits the last spinTail to hit the frame boundary precisely.
func pace(frameStart time.Time, frameInterval time.Duration) {
	deadline := frameStart.Add(frameInterval)
	sleepUntil := deadline.Add(-spinTail)
	if d := time.Until(sleepUntil); d > 0 {
		time.Sleep(d)
	}
	for time.Now().Before(deadline) {
	}
}

func encoderConfigFor(set settings, width, height int) encoder.Config {
	return encoder.Config{
		Codec:            set.codec,
		Bitrate:          set.bitrate,
		FPS:              set.fps,
		KeyframeInterval: set.keyframeIntervalFrames(),
		Width:            width,
		Height:           height,
	}
}

func clampU32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
