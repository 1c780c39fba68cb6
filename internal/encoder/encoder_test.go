package encoder

import (
	"testing"

	"github.com/lanternops/streamd/internal/wire"
)

func TestNewDefaultsToSoftwareBackend(t *testing.T) {
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.BackendName() != "software" {
		t.Fatalf("expected software backend, got %q", e.BackendName())
	}
}

func TestEncodeForcedKeyframe(t *testing.T) {
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, isKey, err := e.Encode([]byte{1, 2, 3, 4}, true)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !isKey {
		t.Fatalf("expected forced keyframe to be reported as keyframe")
	}
	if len(out) != 4 {
		t.Fatalf("expected passthrough length 4, got %d", len(out))
	}
}

func TestReconfigureCodecSwitchReplacesBackend(t *testing.T) {
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Codec = wire.CodecAV1
	if err := e.Reconfigure(cfg); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	if e.Codec() != wire.CodecAV1 {
		t.Fatalf("expected codec av1, got %s", e.Codec())
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bitrate = 0
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected error for zero bitrate")
	}
}
