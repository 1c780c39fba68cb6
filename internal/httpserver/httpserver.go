// Package httpserver is streamd's single HTTP(S) boundary: it upgrades
// WebSocket and WebRTC-signaling requests into Transport connections,
// serves the static viewer bundle, and exposes a couple of small
// diagnostic JSON routes. Nothing below this package knows about HTTP —
// every route either hands a transport.Transport to a new session.Session
// or returns a small JSON/byte payload.
package httpserver

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	"github.com/lanternops/streamd/internal/logging"
	"github.com/lanternops/streamd/internal/monitor"
	"github.com/lanternops/streamd/internal/session"
	"github.com/lanternops/streamd/internal/transport"
	"github.com/lanternops/streamd/internal/wire"
)

var log = logging.L("httpserver")

// Server wires HTTP routes to session construction. One Server is shared
// by every transport (WebSocket, WebRTC signaling, QUIC, WebTransport).
type Server struct {
	staticDir     string
	iceServers    []webrtc.ICEServer
	monitors      *monitor.Registry
	certSHA256    []byte
	nextSessionID atomic.Uint64

	wt *transport.WebTransportServer
}

// Config bundles what Server needs to build routes and sessions.
type Config struct {
	StaticDir  string
	ICEServers []string
	Monitors   *monitor.Registry
	CertSHA256 []byte // leaf certificate hash, exposed at /webtransport/hash
	WebTransport *transport.WebTransportServer
}

// New builds a Server from cfg.
func New(cfg Config) *Server {
	ice := make([]webrtc.ICEServer, 0, len(cfg.ICEServers))
	for _, url := range cfg.ICEServers {
		ice = append(ice, webrtc.ICEServer{URLs: []string{url}})
	}
	if len(ice) == 0 {
		ice = append(ice, webrtc.ICEServer{URLs: []string{"stun:stun.l.google.com:19302"}})
	}

	return &Server{
		staticDir:  cfg.StaticDir,
		iceServers: ice,
		monitors:   cfg.Monitors,
		certSHA256: cfg.CertSHA256,
		wt:         cfg.WebTransport,
	}
}

// Handler returns the full route table, ready to pass to an http.Server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("POST /webrtc/offer", s.handleWebRTCOffer)
	mux.HandleFunc("GET /webtransport/hash", s.handleWebTransportHash)
	mux.HandleFunc("GET /monitors", s.handleMonitors)
	if s.wt != nil {
		mux.HandleFunc("CONNECT /webtransport", s.handleWebTransportSession)
	}
	mux.HandleFunc("/", s.handleStatic)

	return mux
}

func (s *Server) NewSessionID() string {
	return fmt.Sprintf("sess-%d", s.nextSessionID.Add(1))
}

func (s *Server) RunSession(id string, t transport.Transport) {
	slog := logging.WithSession(log, id)

	sess, err := session.New(session.Config{ID: id, Transport: t, Monitors: s.monitors})
	if err != nil {
		slog.Error("failed to start session", logging.KeyError, err)
		t.Close()
		return
	}

	slog.Info("session started")
	if err := sess.Run(); err != nil {
		slog.Error("session ended with error", logging.KeyError, err)
		return
	}
	slog.Info("session ended")
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	t, err := transport.UpgradeWebSocket(w, r)
	if err != nil {
		log.Warn("websocket upgrade failed", logging.KeyError, err)
		return
	}
	go s.RunSession(s.NewSessionID(), t)
}

func (s *Server) handleWebTransportSession(w http.ResponseWriter, r *http.Request) {
	t, err := s.wt.Upgrade(w, r)
	if err != nil {
		log.Warn("webtransport upgrade failed", logging.KeyError, err)
		return
	}
	go s.RunSession(s.NewSessionID(), t)
}

// offerRequest is the body of POST /webrtc/offer: an SDP offer from the
// viewer. The answer is returned synchronously; the data channel opens
// asynchronously once ICE completes, at which point the session starts.
type offerRequest struct {
	SDP string `json:"sdp"`
}

type offerResponse struct {
	SDP string `json:"sdp"`
}

func (s *Server) handleWebRTCOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid offer body", http.StatusBadRequest)
		return
	}

	pc, ready, err := transport.NewWebRTCPeerConnection(req.SDP, s.iceServers)
	if err != nil {
		log.Warn("webrtc offer handling failed", logging.KeyError, err)
		http.Error(w, "failed to negotiate", http.StatusInternalServerError)
		return
	}

	answer := pc.LocalDescription()
	if answer == nil {
		http.Error(w, "no local description", http.StatusInternalServerError)
		return
	}

	id := s.NewSessionID()
	go func() {
		t, ok := <-ready
		if !ok || t == nil {
			pc.Close()
			return
		}
		s.RunSession(id, t)
	}()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(offerResponse{SDP: answer.SDP})
}

func (s *Server) handleWebTransportHash(w http.ResponseWriter, r *http.Request) {
	payload := wire.WebTransportHashPayload{
		Algorithm: "sha-256",
		Value:     s.certSHA256,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) handleMonitors(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(s.monitors.ListJSON())
}

// handleStatic serves the viewer bundle, guarding against path traversal
// and attaching a restrictive Content-Security-Policy the way
// original_source's static file server does.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	reqPath := r.URL.Path
	if reqPath == "/" {
		reqPath = "/index.html"
	}

	cleaned := filepath.Clean(strings.TrimPrefix(reqPath, "/"))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	fullPath := filepath.Join(s.staticDir, cleaned)
	if !strings.HasPrefix(fullPath, filepath.Clean(s.staticDir)+string(filepath.Separator)) && fullPath != filepath.Clean(s.staticDir) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Security-Policy",
		"script-src 'self' 'unsafe-inline' 'unsafe-eval' blob:; connect-src 'self' ws: wss: https:; style-src 'self' 'unsafe-inline';")
	http.ServeContent(w, r, fullPath, info.ModTime(), f)
}

// CertFingerprintSHA256 hashes DER-encoded certificate bytes for exposure
// via /webtransport/hash, matching the fingerprint WebTransport clients
// pin with serverCertificateHashes.
func CertFingerprintSHA256(der []byte) []byte {
	sum := sha256.Sum256(der)
	return sum[:]
}

// ListenAndServeTLS starts the HTTPS listener carrying WebSocket upgrades,
// the static viewer and WebRTC signaling, blocking until ctx is done or a
// fatal listener error occurs.
func ListenAndServeTLS(ctx context.Context, addr string, handler http.Handler, tlsConfigured func(*http.Server)) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	if tlsConfigured != nil {
		tlsConfigured(srv)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServeTLS("", "")
	}()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
