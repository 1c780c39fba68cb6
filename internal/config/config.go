// Package config loads streamd's on-disk configuration via viper, the same
// way the teacher's agent config loads — one YAML file, environment
// overrides under a fixed prefix, validated into two tiers (fatal vs
// warning) before the server is allowed to start.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/lanternops/streamd/internal/wire"
)

// Config is streamd's full runtime configuration.
type Config struct {
	// ListenAddr serves the WebSocket transport and the static viewer
	// page, plus the /webrtc/offer signaling endpoint.
	ListenAddr string `mapstructure:"listen_addr"`
	// QUICListenAddr serves both the plain-QUIC bidirectional-stream
	// transport and, via the same UDP socket, WebTransport over HTTP/3.
	QUICListenAddr string `mapstructure:"quic_listen_addr"`

	TLSCertFile string `mapstructure:"tls_cert_file"`
	TLSKeyFile  string `mapstructure:"tls_key_file"`

	StaticDir string `mapstructure:"static_dir"`

	// Default encoding settings, applied to every new session until the
	// client sends an EncodingSettings control message.
	DefaultCodec            string `mapstructure:"default_codec"`
	DefaultFPS               uint32 `mapstructure:"default_fps"`
	DefaultBitrate           uint32 `mapstructure:"default_bitrate"`
	DefaultKeyframeIntervalS uint32 `mapstructure:"default_keyframe_interval_seconds"`

	// ICEServers lists STUN/TURN URLs offered to WebRTC clients. Empty
	// falls back to a public STUN server at connection time.
	ICEServers []string `mapstructure:"ice_servers"`

	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		ListenAddr:               ":8443",
		QUICListenAddr:           ":8444",
		StaticDir:                "./web",
		DefaultCodec:             string(wire.CodecAV1),
		DefaultFPS:               60,
		DefaultBitrate:           20_000_000,
		DefaultKeyframeIntervalS: 2,
		LogLevel:                 "info",
		LogFormat:                "text",
		LogMaxSizeMB:             50,
		LogMaxBackups:            3,
	}
}

// Load reads cfgFile (or the platform config directory's streamd.yaml if
// cfgFile is empty), overlays STREAMD_-prefixed environment variables, and
// validates the result. Fatal validation errors abort startup; warnings are
// logged and the clamped/corrected config is returned.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("streamd")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("STREAMD")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	result := cfg.ValidateTiered()
	for _, err := range result.Warnings {
		slog.Warn("config validation", "error", err)
	}
	if result.HasFatals() {
		for _, err := range result.Fatals {
			slog.Error("config validation fatal", "error", err)
		}
		return nil, fmt.Errorf("config has fatal validation errors: %v", result.Fatals[0])
	}

	return cfg, nil
}

// Save writes cfg to the platform config directory's streamd.yaml.
func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

// SaveTo writes cfg to cfgFile, or the platform config directory's
// streamd.yaml when cfgFile is empty.
func SaveTo(cfg *Config, cfgFile string) error {
	viper.Set("listen_addr", cfg.ListenAddr)
	viper.Set("quic_listen_addr", cfg.QUICListenAddr)
	viper.Set("tls_cert_file", cfg.TLSCertFile)
	viper.Set("tls_key_file", cfg.TLSKeyFile)
	viper.Set("static_dir", cfg.StaticDir)
	viper.Set("default_codec", cfg.DefaultCodec)
	viper.Set("default_fps", cfg.DefaultFPS)
	viper.Set("default_bitrate", cfg.DefaultBitrate)
	viper.Set("default_keyframe_interval_seconds", cfg.DefaultKeyframeIntervalS)
	viper.Set("ice_servers", cfg.ICEServers)
	viper.Set("log_level", cfg.LogLevel)
	viper.Set("log_format", cfg.LogFormat)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(configDir(), "streamd.yaml")
		if err := os.MkdirAll(configDir(), 0700); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgPath); err != nil {
		return err
	}

	return os.Chmod(cfgPath, 0600)
}

// GetDataDir returns the platform-specific data directory (TLS identity,
// cached certs) for the server.
func GetDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "streamd", "data")
	case "darwin":
		return "/Library/Application Support/streamd/data"
	default:
		return "/var/lib/streamd"
	}
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "streamd")
	case "darwin":
		return "/Library/Application Support/streamd"
	default:
		return "/etc/streamd"
	}
}
