// Package transport abstracts the three concrete byte pipes (WebSocket,
// QUIC/WebTransport, WebRTC data channel) behind one blocking packet-I/O
// facade, so the session loop is written once against Transport.
package transport

import (
	"errors"
	"time"
)

// ErrClosed is returned by RecvPacket/SendPacket once the peer has
// disconnected or the transport has been closed locally.
var ErrClosed = errors.New("transport: closed")

// ErrOversizePacket is returned when a received frame exceeds the
// transport's maximum packet size (64 MiB for the length-prefixed
// transports).
var ErrOversizePacket = errors.New("transport: oversize packet")

// Transport delivers whole application packets to and from one connected
// client. Implementations preserve send-order delivery for a single
// sender; at-most-once delivery is sufficient, no retransmission logic
// lives above this interface.
type Transport interface {
	// SendPacket delivers one complete packet reliably and in order.
	SendPacket(packet []byte) error

	// RecvPacket returns the next complete packet. timeout == 0 polls
	// without blocking. Returns (nil, nil) on timeout with no packet
	// ready, (nil, ErrClosed) once the peer is gone.
	RecvPacket(timeout time.Duration) ([]byte, error)

	// Close releases the underlying connection.
	Close() error
}
