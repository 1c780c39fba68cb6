package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/lanternops/streamd/internal/wire"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"warning": true,
	"error": true,
}

var validCodecs = map[wire.Codec]bool{
	wire.CodecAV1:  true,
	wire.CodecAVC:  true,
	wire.CodecHEVC: true,
	wire.CodecH264: true,
	wire.CodecH265: true,
}

const (
	minFPS             = 24
	maxFPS             = 120
	minBitrate         = 2_000_000
	maxBitrate         = 80_000_000
	minKeyframeSeconds = 1
	maxKeyframeSeconds = 10
)

// ValidationResult splits validation problems into Fatals (block startup)
// and Warnings (logged, config auto-corrected where possible).
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

// HasFatals reports whether any fatal error was recorded.
func (r ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

// AllErrors returns every fatal and warning together, fatals first.
func (r ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	all = append(all, r.Warnings...)
	return all
}

// ValidateTiered checks cfg for invalid values. Listener addresses and a
// half-configured TLS pair are fatal — the server cannot usefully start.
// Everything else (encoding defaults out of range, unknown log settings)
// is clamped or ignored and recorded as a warning instead.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult

	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		r.Fatals = append(r.Fatals, fmt.Errorf("listen_addr %q is invalid: %w", c.ListenAddr, err))
	}
	if _, _, err := net.SplitHostPort(c.QUICListenAddr); err != nil {
		r.Fatals = append(r.Fatals, fmt.Errorf("quic_listen_addr %q is invalid: %w", c.QUICListenAddr, err))
	}

	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		r.Fatals = append(r.Fatals, fmt.Errorf("tls_cert_file and tls_key_file must both be set or both empty"))
	}

	if c.DefaultCodec != "" && !validCodecs[wire.Codec(c.DefaultCodec).Normalize()] {
		r.Warnings = append(r.Warnings, fmt.Errorf("default_codec %q is not recognized, falling back to av1", c.DefaultCodec))
		c.DefaultCodec = string(wire.CodecAV1)
	}

	if c.DefaultFPS < minFPS {
		r.Warnings = append(r.Warnings, fmt.Errorf("default_fps %d is below minimum %d, clamping", c.DefaultFPS, minFPS))
		c.DefaultFPS = minFPS
	} else if c.DefaultFPS > maxFPS {
		r.Warnings = append(r.Warnings, fmt.Errorf("default_fps %d exceeds maximum %d, clamping", c.DefaultFPS, maxFPS))
		c.DefaultFPS = maxFPS
	}

	if c.DefaultBitrate < minBitrate {
		r.Warnings = append(r.Warnings, fmt.Errorf("default_bitrate %d is below minimum %d, clamping", c.DefaultBitrate, minBitrate))
		c.DefaultBitrate = minBitrate
	} else if c.DefaultBitrate > maxBitrate {
		r.Warnings = append(r.Warnings, fmt.Errorf("default_bitrate %d exceeds maximum %d, clamping", c.DefaultBitrate, maxBitrate))
		c.DefaultBitrate = maxBitrate
	}

	if c.DefaultKeyframeIntervalS < minKeyframeSeconds {
		r.Warnings = append(r.Warnings, fmt.Errorf("default_keyframe_interval_seconds %d is below minimum %d, clamping", c.DefaultKeyframeIntervalS, minKeyframeSeconds))
		c.DefaultKeyframeIntervalS = minKeyframeSeconds
	} else if c.DefaultKeyframeIntervalS > maxKeyframeSeconds {
		r.Warnings = append(r.Warnings, fmt.Errorf("default_keyframe_interval_seconds %d exceeds maximum %d, clamping", c.DefaultKeyframeIntervalS, maxKeyframeSeconds))
		c.DefaultKeyframeIntervalS = maxKeyframeSeconds
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	return r
}
