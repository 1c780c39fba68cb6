package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"
	"github.com/spf13/cobra"

	"github.com/lanternops/streamd/internal/config"
	"github.com/lanternops/streamd/internal/httpserver"
	"github.com/lanternops/streamd/internal/logging"
	"github.com/lanternops/streamd/internal/monitor"
	"github.com/lanternops/streamd/internal/session"
	"github.com/lanternops/streamd/internal/tlsidentity"
	"github.com/lanternops/streamd/internal/transport"
)

var (
	version = "0.1.0"
	cfgFile string
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "streamd",
	Short: "streamd low-latency remote desktop streaming server",
	Long:  `streamd captures a display, encodes it in hardware where available, and streams it to viewers over WebSocket, QUIC or WebRTC.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the streaming server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List connected displays as JSON and exit",
	Run: func(cmd *cobra.Command, args []string) {
		listMonitors()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("streamd v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/streamd/streamd.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(monitorsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogging sets up structured logging from config. Call after config.Load().
func initLogging(cfg *config.Config) {
	var output io.Writer = os.Stdout
	logFileFallback := false

	if cfg.LogFile != "" {
		rw, err := logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v (logging to stdout)\n", cfg.LogFile, err)
			logFileFallback = true
		} else {
			output = logging.TeeWriter(os.Stdout, rw)
		}
	}

	logging.Init(cfg.LogFormat, cfg.LogLevel, output)
	log = logging.L("main")

	if logFileFallback {
		log.Warn("log file fallback active, logging to stdout only", "requestedFile", cfg.LogFile)
	}
}

func listMonitors() {
	reg := monitor.Enumerate()
	var pretty []json.RawMessage
	_ = json.Unmarshal(reg.ListJSON(), &pretty)
	out, _ := json.MarshalIndent(reg.List(), "", "  ")
	fmt.Println(string(out))
}

func runServe() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	initLogging(cfg)

	disableHighResTimer := session.EnableHighResTimer()
	defer disableHighResTimer()

	log.Info("starting streamd", "version", version, "listen", cfg.ListenAddr, "quicListen", cfg.QUICListenAddr)

	reg := monitor.Enumerate()
	log.Info("enumerated displays", "count", len(reg.List()))

	dataDir := config.GetDataDir()
	identity, err := tlsidentity.Ensure(dataDir, cfg.TLSCertFile, cfg.TLSKeyFile)
	if err != nil {
		log.Error("failed to provision TLS identity", logging.KeyError, err)
		os.Exit(1)
	}
	log.Info("TLS identity ready", "fingerprint", identity.Fingerprint, "notAfter", identity.NotAfter)

	certSHA256 := httpserver.CertFingerprintSHA256(identity.Cert.Certificate[0])

	wtServer := &webtransport.Server{
		H3: http3.Server{
			TLSConfig: identity.TLSConfig(),
		},
	}
	wt := transport.NewWebTransportServer(wtServer)

	srv := httpserver.New(httpserver.Config{
		StaticDir:    cfg.StaticDir,
		ICEServers:   cfg.ICEServers,
		Monitors:     reg,
		CertSHA256:   certSHA256,
		WebTransport: wt,
	})
	wtServer.H3.Handler = srv.Handler()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	errCh := make(chan error, 2)

	go func() {
		errCh <- httpserver.ListenAndServeTLS(ctx, cfg.ListenAddr, srv.Handler(), func(s *http.Server) {
			s.TLSConfig = identity.TLSConfig()
		})
	}()

	go func() {
		errCh <- runQUICListener(ctx, cfg.QUICListenAddr, identity, srv, &wtServer.H3)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("server exited with error", logging.KeyError, err)
		}
	}
}

// runQUICListener accepts both the server's raw QUIC stream transport and
// WebTransport/HTTP3 sessions on a single UDP port, branching on each
// connection's negotiated ALPN protocol ("streamd-quic" vs "h3") the way
// quic-go's own multiplexing examples demux a shared listener.
func runQUICListener(ctx context.Context, addr string, identity *tlsidentity.Identity, srv *httpserver.Server, h3 *http3.Server) error {
	ln, err := transport.ListenMultiplexed(addr, identity.TLSConfig())
	if err != nil {
		return fmt.Errorf("quic listener: %w", err)
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("quic accept failed", logging.KeyError, err)
			continue
		}

		go func(conn quic.Connection) {
			if transport.IsRawQUICALPN(transport.NegotiatedALPN(conn)) {
				t, err := transport.AcceptQUICConnStream(ctx, conn)
				if err != nil {
					log.Warn("quic stream accept failed", logging.KeyError, err)
					return
				}
				srv.RunSession(srv.NewSessionID(), t)
				return
			}
			if err := h3.ServeQUICConn(conn); err != nil {
				log.Debug("http3 connection ended", logging.KeyError, err)
			}
		}(conn)
	}
}
