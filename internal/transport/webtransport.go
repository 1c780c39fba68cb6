package transport

import (
	"fmt"
	"net/http"

	"github.com/quic-go/webtransport-go"
)

// WebTransportServer upgrades incoming HTTP/3 WebTransport sessions and
// hands off their first bidirectional stream as a Transport, using the
// same 4-byte length-prefixed framing as the plain QUIC transport — the
// session layer above neither knows nor cares which of the two carried it.
type WebTransportServer struct {
	server *webtransport.Server
}

// NewWebTransportServer wraps an already-configured webtransport.Server
// (its H3 server and certificate hashes are set up by the HTTP boundary).
func NewWebTransportServer(server *webtransport.Server) *WebTransportServer {
	return &WebTransportServer{server: server}
}

// Upgrade accepts one WebTransport session over r and returns its first
// bidirectional stream as a Transport.
func (s *WebTransportServer) Upgrade(w http.ResponseWriter, r *http.Request) (Transport, error) {
	session, err := s.server.Upgrade(w, r)
	if err != nil {
		return nil, fmt.Errorf("webtransport upgrade: %w", err)
	}

	stream, err := session.AcceptStream(r.Context())
	if err != nil {
		return nil, fmt.Errorf("webtransport accept stream: %w", err)
	}
	return newFramedStream(stream), nil
}
