package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lanternops/streamd/internal/capture"
	"github.com/lanternops/streamd/internal/wire"
)

// stats accumulates counters over one 5-second reporting window, mirroring
// original_source's frames_encoded/total_encode_time_us bookkeeping.
type stats struct {
	framesSent  uint64
	bytesSent   uint64
	encodeTotal float64 // sum of per-frame encode durations, in microseconds
}

func (st *stats) record(bytesOut int, encodeUs float64) {
	st.framesSent++
	st.bytesSent += uint64(bytesOut)
	st.encodeTotal += encodeUs
}

func (st *stats) reset() {
	*st = stats{}
}

func (st *stats) payload(windowSecs float64) wire.StatsPayload {
	avgEncodeUs := 0.0
	if st.framesSent > 0 {
		avgEncodeUs = st.encodeTotal / float64(st.framesSent)
	}
	fps := 0.0
	if windowSecs > 0 {
		fps = float64(st.framesSent) / windowSecs
	}
	return wire.StatsPayload{
		FramesSent:  st.framesSent,
		BytesSent:   st.bytesSent,
		AvgEncodeUs: avgEncodeUs,
		CurrentFPS:  fps,
	}
}

// encodeAndSend converts frame to NV12, encodes it, and sends the result
// as a VideoFrame packet. A nil encoded payload (encoder still buffering,
// e.g. waiting on a GOP boundary) is not an error and sends nothing.
func (s *Session) encodeAndSend(frame *capture.Frame, forceKeyframe bool) error {
	var nv12 []byte
	if bp, ok := s.capturer.(capture.BGRAProvider); ok && bp.IsBGRA() {
		nv12 = capture.BGRAToNV12(frame.Pix, frame.Width, frame.Height, frame.Stride)
	} else {
		nv12 = capture.RGBAToNV12(frame.Pix, frame.Width, frame.Height, frame.Stride)
	}
	defer capture.PutNV12Buffer(nv12)

	t0 := time.Now()
	payload, isKeyframe, err := s.enc.Encode(nv12, forceKeyframe)
	encodeUs := float64(time.Since(t0).Microseconds())
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if payload == nil {
		return nil
	}

	flags := wire.FlagEndOfFrame
	if isKeyframe {
		flags |= wire.FlagKeyframe
	}
	pkt := wire.Packet{
		Header: wire.Header{
			Type:     wire.TypeVideoFrame,
			Flags:    flags,
			Sequence: s.frameSeq,
			PTS:      s.frameSeq,
		},
		Payload: payload,
	}
	s.frameSeq++

	if err := s.t.SendPacket(wire.Encode(pkt)); err != nil {
		return err
	}
	s.stats.record(len(payload), encodeUs)
	return nil
}

func (s *Session) sendMonitorList() error {
	pkt := wire.Packet{
		Header:  wire.Header{Type: wire.TypeMonitorList},
		Payload: s.monitors.ListJSON(),
	}
	return s.t.SendPacket(wire.Encode(pkt))
}

func (s *Session) sendEncodingSettingsState() error {
	payload, err := json.Marshal(wire.EncodingSettingsPayload{
		FPS:              s.settings.fps,
		Bitrate:          s.settings.bitrate,
		KeyframeInterval: s.settings.keyframeSecs,
		Codec:            s.settings.codec,
	})
	if err != nil {
		return fmt.Errorf("marshal encoding settings: %w", err)
	}
	pkt := wire.Packet{
		Header:  wire.Header{Type: wire.TypeEncodingSettings},
		Payload: payload,
	}
	return s.t.SendPacket(wire.Encode(pkt))
}

func (s *Session) emitStats() error {
	payload, err := json.Marshal(s.stats.payload(statsInterval.Seconds()))
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	pkt := wire.Packet{
		Header:  wire.Header{Type: wire.TypeStats},
		Payload: payload,
	}
	return s.t.SendPacket(wire.Encode(pkt))
}
