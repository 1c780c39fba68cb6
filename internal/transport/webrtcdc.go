package transport

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
)

// webrtcChunkSize keeps each outbound message under the data channel's
// default 65535-byte SCTP message limit with headroom, matching the
// chunking original_source's WebRTC transport uses.
const webrtcChunkSize = 60000

// ErrNoDataChannel is returned when a WebRTC offer produced no "session"
// data channel before the caller gave up waiting for it.
var ErrNoDataChannel = fmt.Errorf("transport: webrtc data channel never opened")

// NewWebRTCPeerConnection builds a pion PeerConnection with the default
// API and configuration, wiring its "session" data channel as a
// chunked-reassembly Transport once the channel opens. RTCP PLI/FIR
// keyframe requests from an attached RTP sender are read separately, by
// DrainKeyframeRequests.
func NewWebRTCPeerConnection(offerSDP string, iceServers []webrtc.ICEServer) (*webrtc.PeerConnection, <-chan Transport, error) {
	api := webrtc.NewAPI()
	config := webrtc.Configuration{ICEServers: iceServers}

	pc, err := api.NewPeerConnection(config)
	if err != nil {
		return nil, nil, fmt.Errorf("webrtc: new peer connection: %w", err)
	}

	ready := make(chan Transport, 1)
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != "session" {
			return
		}
		t := newWebRTCTransport(dc)
		dc.OnOpen(func() {
			select {
			case ready <- t:
			default:
			}
		})
	})

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}
	if err := pc.SetRemoteDescription(offer); err != nil {
		return nil, nil, fmt.Errorf("webrtc: set remote description: %w", err)
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("webrtc: create answer: %w", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return nil, nil, fmt.Errorf("webrtc: set local description: %w", err)
	}

	return pc, ready, nil
}

// DrainKeyframeRequests watches an RTP sender's RTCP reader and calls
// forceKeyframe whenever a PictureLossIndication or FullIntraRequest
// arrives, rate-limited to once per 500ms. Runs until the sender's RTCP
// reader returns an error (peer connection closed).
func DrainKeyframeRequests(sender *webrtc.RTPSender, forceKeyframe func()) {
	buf := make([]byte, 1500)
	var last time.Time
	for {
		n, _, err := sender.Read(buf)
		if err != nil {
			return
		}
		pkts, err := rtcp.Unmarshal(buf[:n])
		if err != nil {
			continue
		}
		for _, p := range pkts {
			switch p.(type) {
			case *rtcp.PictureLossIndication, *rtcp.FullIntraRequest:
				if time.Since(last) < 500*time.Millisecond {
					continue
				}
				last = time.Now()
				forceKeyframe()
			}
		}
	}
}

// webrtcTransport implements Transport over a pion DataChannel, chunking
// outbound packets larger than webrtcChunkSize and reassembling inbound
// chunks by their declared total length. Wire format per chunk:
// [4 byte total length LE][4 byte offset LE][chunk bytes].
type webrtcTransport struct {
	dc *webrtc.DataChannel

	incoming chan []byte
	errCh    chan error

	reassembleMu sync.Mutex
	reassembling []byte
	reassembledN int

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func newWebRTCTransport(dc *webrtc.DataChannel) *webrtcTransport {
	t := &webrtcTransport{
		dc:       dc,
		incoming: make(chan []byte, 8),
		errCh:    make(chan error, 1),
		done:     make(chan struct{}),
	}

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.handleChunk(msg.Data)
	})
	dc.OnClose(func() {
		t.errCh <- ErrClosed
		close(t.incoming)
	})

	return t
}

func (t *webrtcTransport) handleChunk(data []byte) {
	if len(data) < 8 {
		return
	}
	totalLen := binary.LittleEndian.Uint32(data[0:4])
	offset := binary.LittleEndian.Uint32(data[4:8])
	payload := data[8:]

	t.reassembleMu.Lock()
	if offset == 0 {
		t.reassembling = make([]byte, totalLen)
		t.reassembledN = 0
	}
	if t.reassembling == nil || int(offset)+len(payload) > len(t.reassembling) {
		// Out-of-order chunk for a packet we never started; drop it.
		t.reassembleMu.Unlock()
		return
	}
	copy(t.reassembling[offset:], payload)
	t.reassembledN += len(payload)
	complete := t.reassembledN >= len(t.reassembling)
	var full []byte
	if complete {
		full = t.reassembling
		t.reassembling = nil
		t.reassembledN = 0
	}
	t.reassembleMu.Unlock()

	if complete {
		select {
		case t.incoming <- full:
		case <-t.done:
		}
	}
}

func (t *webrtcTransport) SendPacket(packet []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	totalLen := len(packet)
	for offset := 0; offset < totalLen || totalLen == 0; {
		chunkSize := totalLen - offset
		if chunkSize > webrtcChunkSize {
			chunkSize = webrtcChunkSize
		}
		chunk := make([]byte, 8+chunkSize)
		binary.LittleEndian.PutUint32(chunk[0:4], uint32(totalLen))
		binary.LittleEndian.PutUint32(chunk[4:8], uint32(offset))
		copy(chunk[8:], packet[offset:offset+chunkSize])

		if err := t.dc.Send(chunk); err != nil {
			return fmt.Errorf("webrtc send: %w", err)
		}
		offset += chunkSize
		if totalLen == 0 {
			break
		}
	}
	return nil
}

func (t *webrtcTransport) RecvPacket(timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		select {
		case data, ok := <-t.incoming:
			if !ok {
				return nil, t.terminalErr()
			}
			return data, nil
		default:
			return nil, nil
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case data, ok := <-t.incoming:
		if !ok {
			return nil, t.terminalErr()
		}
		return data, nil
	case <-timer.C:
		return nil, nil
	}
}

func (t *webrtcTransport) terminalErr() error {
	select {
	case err := <-t.errCh:
		return err
	default:
		return ErrClosed
	}
}

func (t *webrtcTransport) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return t.dc.Close()
}

var _ Transport = (*webrtcTransport)(nil)
