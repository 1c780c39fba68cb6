package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/quic-go/quic-go"
)

// rawQUICALPN is the ALPN token raw (non-WebTransport) QUIC stream
// clients negotiate, letting ListenMultiplexed tell them apart from "h3"
// connections on the same UDP socket.
const rawQUICALPN = "streamd-quic"

var quicServerConfig = &quic.Config{
	MaxIdleTimeout:  30 * time.Second,
	KeepAlivePeriod: 15 * time.Second,
}

// ListenQUIC starts a standalone QUIC listener for the server's own
// bidirectional stream transport, used when it is not sharing a UDP port
// with the WebTransport HTTP/3 surface.
func ListenQUIC(addr string, tlsConf *tls.Config) (*quic.Listener, error) {
	return quic.ListenAddr(addr, tlsConf, quicServerConfig)
}

// AcceptQUICStream accepts one connection and its first bidirectional
// stream, wrapping it as a length-prefixed Transport.
func AcceptQUICStream(ctx context.Context, ln *quic.Listener) (Transport, error) {
	conn, err := ln.Accept(ctx)
	if err != nil {
		return nil, fmt.Errorf("quic accept: %w", err)
	}
	return AcceptQUICConnStream(ctx, conn)
}

// AcceptQUICConnStream accepts the first bidirectional stream on an
// already-established QUIC connection (handed off by a multiplexed
// listener after ALPN demuxing) and wraps it as a length-prefixed
// Transport.
func AcceptQUICConnStream(ctx context.Context, conn quic.Connection) (Transport, error) {
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("quic accept stream: %w", err)
	}
	return newFramedStream(stream), nil
}

// ListenMultiplexed starts one QUIC listener carrying both the server's
// raw stream transport and WebTransport/HTTP3 sessions on the same UDP
// port, distinguished by ALPN: tlsConf must offer both "h3" and
// rawQUICALPN. Callers branch on a connection's negotiated protocol.
func ListenMultiplexed(addr string, tlsConf *tls.Config) (*quic.EarlyListener, error) {
	conf := *tlsConf
	conf.NextProtos = []string{"h3", rawQUICALPN}
	return quic.ListenAddrEarly(addr, &conf, quicServerConfig)
}

// NegotiatedALPN returns the ALPN protocol a multiplexed connection
// negotiated, so the caller can route it to the HTTP/3 WebTransport
// server or to the raw stream transport.
func NegotiatedALPN(conn quic.Connection) string {
	return conn.ConnectionState().TLS.NegotiatedProtocol
}

// IsRawQUICALPN reports whether proto is the raw stream transport's ALPN
// token (as opposed to "h3").
func IsRawQUICALPN(proto string) bool {
	return proto == rawQUICALPN
}
