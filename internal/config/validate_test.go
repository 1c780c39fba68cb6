package config

import (
	"fmt"
	"strings"
	"testing"
)

func TestValidateTieredInvalidListenAddrIsFatal(t *testing.T) {
	cfg := Default()
	cfg.ListenAddr = "not-a-host-port"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("invalid listen_addr should be fatal")
	}
}

func TestValidateTieredInvalidQUICListenAddrIsFatal(t *testing.T) {
	cfg := Default()
	cfg.QUICListenAddr = "nope"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("invalid quic_listen_addr should be fatal")
	}
}

func TestValidateTieredHalfConfiguredTLSIsFatal(t *testing.T) {
	cfg := Default()
	cfg.TLSCertFile = "/etc/streamd/cert.pem"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("cert without key should be fatal")
	}
}

func TestValidateTieredFPSClampingIsWarning(t *testing.T) {
	cfg := Default()
	cfg.DefaultFPS = 5
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped fps should be warning, not fatal: %v", result.Fatals)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for clamped fps")
	}
	if cfg.DefaultFPS != minFPS {
		t.Fatalf("DefaultFPS = %d, want %d (clamped)", cfg.DefaultFPS, minFPS)
	}
}

func TestValidateTieredHighFPSClampingIsWarning(t *testing.T) {
	cfg := Default()
	cfg.DefaultFPS = 500
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped fps should be warning, not fatal: %v", result.Fatals)
	}
	if cfg.DefaultFPS != maxFPS {
		t.Fatalf("DefaultFPS = %d, want %d (clamped)", cfg.DefaultFPS, maxFPS)
	}
}

func TestValidateTieredBitrateClamping(t *testing.T) {
	cfg := Default()
	cfg.DefaultBitrate = 1
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped bitrate should be warning: %v", result.Fatals)
	}
	if cfg.DefaultBitrate != minBitrate {
		t.Fatalf("DefaultBitrate = %d, want %d", cfg.DefaultBitrate, minBitrate)
	}
}

func TestValidateTieredKeyframeIntervalClamping(t *testing.T) {
	cfg := Default()
	cfg.DefaultKeyframeIntervalS = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped keyframe interval should be warning: %v", result.Fatals)
	}
	if cfg.DefaultKeyframeIntervalS != minKeyframeSeconds {
		t.Fatalf("DefaultKeyframeIntervalS = %d, want %d", cfg.DefaultKeyframeIntervalS, minKeyframeSeconds)
	}
}

func TestValidateTieredUnknownCodecIsWarning(t *testing.T) {
	cfg := Default()
	cfg.DefaultCodec = "vp9"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("unknown codec should not be fatal")
	}
	found := false
	for _, err := range result.Warnings {
		if strings.Contains(err.Error(), "vp9") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected warning about unknown codec")
	}
}

func TestValidateTieredUnknownLogLevelIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("unknown log level should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for unknown log level")
	}
}

func TestValidateTieredInvalidLogFormatIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("invalid log format should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for invalid log format")
	}
}

func TestHasFatals(t *testing.T) {
	r := ValidationResult{}
	if r.HasFatals() {
		t.Fatal("HasFatals() on empty result should be false")
	}
	r.Fatals = append(r.Fatals, fmt.Errorf("test error"))
	if !r.HasFatals() {
		t.Fatal("HasFatals() should be true with a fatal error")
	}
}

func TestAllErrorsReturnsBoth(t *testing.T) {
	cfg := Default()
	cfg.ListenAddr = "bad"   // fatal
	cfg.DefaultFPS = 1       // warning
	result := cfg.ValidateTiered()

	all := result.AllErrors()
	if len(all) < 2 {
		t.Fatalf("AllErrors() returned %d errors, expected at least 2 (fatals + warnings)", len(all))
	}
}

func TestValidConfigHasNoErrors(t *testing.T) {
	cfg := Default()
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("valid config has fatals: %v", result.Fatals)
	}
	if len(result.Warnings) > 0 {
		t.Fatalf("valid config has warnings: %v", result.Warnings)
	}
}
