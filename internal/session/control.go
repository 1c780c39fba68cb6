package session

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lanternops/streamd/internal/input"
	"github.com/lanternops/streamd/internal/transport"
	"github.com/lanternops/streamd/internal/wire"
)

// drainControl pulls every control packet currently queued on the
// transport (non-blocking — controlPollTimeout is zero) and applies it.
// It returns alive=false once the transport reports the peer is gone.
// Monitor switches and encoding-setting changes are applied immediately
// rather than deferred, since nothing else in the loop depends on the old
// capturer/encoder surviving past this point.
func (s *Session) drainControl(forceKeyframe *bool) (alive bool, err error) {
	for {
		data, err := s.t.RecvPacket(controlPollTimeout)
		if err != nil {
			if err == transport.ErrClosed {
				return false, nil
			}
			return false, fmt.Errorf("recv control: %w", err)
		}
		if data == nil {
			return true, nil
		}
		s.handleControlPacket(data, forceKeyframe)
	}
}

func (s *Session) handleControlPacket(data []byte, forceKeyframe *bool) {
	pkt, err := wire.DecodePacket(data)
	if err != nil {
		slog.Debug("dropping malformed control packet", "session", s.id, "error", err)
		return
	}

	switch pkt.Header.Type {
	case wire.TypeKeyframeRequest:
		*forceKeyframe = true

	case wire.TypeMonitorSelect:
		var sel wire.MonitorSelect
		if err := json.Unmarshal(pkt.Payload, &sel); err != nil {
			slog.Debug("bad MonitorSelect payload", "session", s.id, "error", err)
			return
		}
		s.applyMonitorSelect(sel.Index, forceKeyframe)

	case wire.TypeEncodingSettings:
		var p wire.EncodingSettingsPayload
		if err := json.Unmarshal(pkt.Payload, &p); err != nil {
			slog.Debug("bad EncodingSettings payload", "session", s.id, "error", err)
			return
		}
		s.applyEncodingSettings(p, forceKeyframe)

	case wire.TypeMouseInput:
		var m wire.MouseInputPayload
		if err := json.Unmarshal(pkt.Payload, &m); err != nil {
			slog.Debug("bad MouseInput payload", "session", s.id, "error", err)
			return
		}
		s.applyMouseInput(m)

	case wire.TypeKeyboardInput:
		var k wire.KeyboardInputPayload
		if err := json.Unmarshal(pkt.Payload, &k); err != nil {
			slog.Debug("bad KeyboardInput payload", "session", s.id, "error", err)
			return
		}
		s.applyKeyboardInput(k)

	default:
		// Video/stats/ping types never arrive from a client; unknown tags
		// are dropped silently per wire.Decode's contract.
	}
}

func (s *Session) applyMonitorSelect(index uint32, forceKeyframe *bool) {
	if index == s.monitorIndex {
		return
	}
	if _, ok := s.monitors.ByIndex(index); !ok {
		slog.Warn("MonitorSelect: unknown index, ignoring", "session", s.id, "index", index)
		return
	}
	if err := s.bindMonitor(index); err != nil {
		slog.Error("MonitorSelect: rebind failed, staying on current monitor", "session", s.id, "index", index, "error", err)
		return
	}
	*forceKeyframe = true
	slog.Info("monitor switched", "session", s.id, "index", index)
}

// applyEncodingSettings clamps the requested settings, rebuilds the
// encoder only if anything actually changed (post-clamp), and always
// echoes the resulting state back to the client.
func (s *Session) applyEncodingSettings(p wire.EncodingSettingsPayload, forceKeyframe *bool) {
	next := settings{
		codec:        s.settings.codec,
		fps:          clampU32(p.FPS, minFPS, maxFPS),
		bitrate:      clampU32(p.Bitrate, minBitrate, maxBitrate),
		keyframeSecs: clampU32(p.KeyframeInterval, minKeyframeSec, maxKeyframeSec),
	}
	if p.Codec != "" {
		if c := p.Codec.Normalize(); c == wire.CodecAV1 || c == wire.CodecAVC || c == wire.CodecHEVC {
			next.codec = c
		} else {
			slog.Warn("EncodingSettings: unknown codec, ignoring", "session", s.id, "codec", p.Codec)
		}
	}

	if next != s.settings {
		width, height := s.capturer.Bounds()
		if err := s.enc.Reconfigure(encoderConfigFor(next, width, height)); err != nil {
			slog.Warn("EncodingSettings: reconfigure failed", "session", s.id, "error", err)
		} else {
			s.settings = next
			*forceKeyframe = true
			slog.Info("encoding settings updated",
				"session", s.id, "codec", next.codec, "fps", next.fps,
				"bitrate", next.bitrate, "keyframeSecs", next.keyframeSecs)
		}
	}

	if err := s.sendEncodingSettingsState(); err != nil {
		slog.Debug("failed to echo encoding settings", "session", s.id, "error", err)
	}
}

func (s *Session) applyMouseInput(m wire.MouseInputPayload) {
	if s.injector == nil {
		return
	}
	var err error
	switch m.Kind {
	case wire.MouseMove:
		err = s.injector.MouseMove(m.X, m.Y)
	case wire.MouseButton:
		err = s.injector.MouseButton(mouseButtonFromWire(m.Button), m.Down, m.X, m.Y)
	case wire.MouseWheel:
		err = s.injector.MouseWheel(m.DeltaX, m.DeltaY)
	default:
		return
	}
	if err != nil {
		slog.Debug("mouse input failed", "session", s.id, "kind", m.Kind, "error", err)
	}
}

func (s *Session) applyKeyboardInput(k wire.KeyboardInputPayload) {
	if s.injector == nil || k.KeyCode == 0 {
		return
	}
	if err := s.injector.KeyboardKey(k.KeyCode, k.Down); err != nil {
		slog.Debug("keyboard input failed", "session", s.id, "keyCode", k.KeyCode, "error", err)
	}
}

func mouseButtonFromWire(b uint8) input.MouseButton {
	switch b {
	case 1:
		return input.ButtonMiddle
	case 2:
		return input.ButtonRight
	case 3:
		return input.ButtonX1
	case 4:
		return input.ButtonX2
	default:
		return input.ButtonLeft
	}
}
