package tlsidentity

import (
	"path/filepath"
	"testing"
	"time"
)

func TestEnsureGeneratesAndReloads(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")

	id1, err := Ensure(dir, certFile, keyFile)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if id1.Fingerprint == "" {
		t.Fatal("expected non-empty fingerprint")
	}
	if !id1.NotAfter.After(id1.NotBefore) {
		t.Fatal("NotAfter should be after NotBefore")
	}

	id2, err := Ensure(dir, certFile, keyFile)
	if err != nil {
		t.Fatalf("Ensure (reload): %v", err)
	}
	if id2.Fingerprint != id1.Fingerprint {
		t.Fatal("reload should reuse the persisted certificate, not regenerate")
	}
}

func TestIsExpired(t *testing.T) {
	if !IsExpired(time.Time{}) {
		t.Fatal("zero time should be treated as expired")
	}
	if IsExpired(time.Now().Add(time.Hour)) {
		t.Fatal("future time should not be expired")
	}
	if !IsExpired(time.Now().Add(-time.Hour)) {
		t.Fatal("past time should be expired")
	}
}

func TestNeedsRenewal(t *testing.T) {
	notBefore := time.Now().Add(-10 * 24 * time.Hour)
	notAfter := notBefore.Add(Lifetime)
	if !NeedsRenewal(notBefore, notAfter) {
		t.Fatal("cert 10 of 14 days in should need renewal")
	}

	fresh := time.Now()
	if NeedsRenewal(fresh, fresh.Add(Lifetime)) {
		t.Fatal("freshly issued cert should not need renewal")
	}
}
