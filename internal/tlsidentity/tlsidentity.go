// Package tlsidentity provisions the self-signed TLS certificate streamd
// presents to viewers over WebSocket, QUIC and WebTransport. There is no
// enrollment step and no certificate authority: the server mints its own
// short-lived leaf certificate on first run and renews it automatically,
// the way the teacher's mTLS helper tracked issued/expires timestamps for
// an agent-issued cert.
package tlsidentity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

var serialLimit = new(big.Int).Lsh(big.NewInt(1), 128)

// Lifetime is how long a generated leaf certificate is valid for. Kept
// short since renewal is automatic and cheap (ECDSA P-256 keygen is fast),
// which bounds the damage window if a fingerprint is ever pinned and leaked.
const Lifetime = 14 * 24 * time.Hour

// renewalFraction triggers a fresh certificate once 2/3 of Lifetime has
// elapsed, mirroring the teacher's NeedsRenewal helper.
const renewalFraction = 2.0 / 3.0

const versionMarkerFile = "cert.version"

// Identity is a provisioned TLS server identity plus its SHA-256
// fingerprint, which viewers can display to the operator for out-of-band
// verification since there is no CA chain to validate against.
type Identity struct {
	Cert        tls.Certificate
	Fingerprint string
	NotBefore   time.Time
	NotAfter    time.Time
}

// Ensure loads a valid, non-expiring-soon certificate from certFile/keyFile
// under dataDir, or generates and persists a new self-signed one. It is
// safe to call on every startup.
func Ensure(dataDir, certFile, keyFile string) (*Identity, error) {
	if certFile == "" {
		certFile = filepath.Join(dataDir, "cert.pem")
	}
	if keyFile == "" {
		keyFile = filepath.Join(dataDir, "key.pem")
	}

	if id, err := load(certFile, keyFile); err == nil {
		if !IsExpired(id.NotAfter) && !NeedsRenewal(id.NotBefore, id.NotAfter) {
			return id, nil
		}
	}

	id, err := generate()
	if err != nil {
		return nil, fmt.Errorf("tlsidentity: generate: %w", err)
	}
	if err := persist(id, certFile, keyFile); err != nil {
		return nil, fmt.Errorf("tlsidentity: persist: %w", err)
	}
	return id, nil
}

// IsExpired reports whether notAfter has passed. Fails closed: a zero
// time is treated as expired so callers never trust an unparsed identity.
func IsExpired(notAfter time.Time) bool {
	if notAfter.IsZero() {
		return true
	}
	return time.Now().After(notAfter)
}

// NeedsRenewal reports whether the certificate has passed renewalFraction
// of its total lifetime.
func NeedsRenewal(notBefore, notAfter time.Time) bool {
	if notBefore.IsZero() || notAfter.IsZero() {
		return false
	}
	lifetime := notAfter.Sub(notBefore)
	threshold := notBefore.Add(time.Duration(float64(lifetime) * renewalFraction))
	return time.Now().After(threshold)
}

func generate() (*Identity, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, serialLimit)
	if err != nil {
		return nil, fmt.Errorf("generate serial: %w", err)
	}
	notBefore := time.Now()
	notAfter := notBefore.Add(Lifetime)

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "streamd"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}

	tlsCert, err := tls.X509KeyPair(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	)
	if err != nil {
		return nil, fmt.Errorf("build tls certificate: %w", err)
	}

	sum := sha256.Sum256(der)
	return &Identity{
		Cert:        tlsCert,
		Fingerprint: hex.EncodeToString(sum[:]),
		NotBefore:   notBefore,
		NotAfter:    notAfter,
	}, nil
}

func load(certFile, keyFile string) (*Identity, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return nil, err
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, err
	}

	tlsCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse cert/key pair: %w", err)
	}

	leaf, err := x509.ParseCertificate(tlsCert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parse leaf certificate: %w", err)
	}

	sum := sha256.Sum256(leaf.Raw)
	return &Identity{
		Cert:        tlsCert,
		Fingerprint: hex.EncodeToString(sum[:]),
		NotBefore:   leaf.NotBefore,
		NotAfter:    leaf.NotAfter,
	}, nil
}

func persist(id *Identity, certFile, keyFile string) error {
	dir := filepath.Dir(certFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: id.Cert.Certificate[0]})
	if err := os.WriteFile(certFile, certPEM, 0600); err != nil {
		return err
	}

	keyDER, err := x509.MarshalECPrivateKey(id.Cert.PrivateKey.(*ecdsa.PrivateKey))
	if err != nil {
		return err
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(keyFile, keyPEM, 0600); err != nil {
		return err
	}

	marker := filepath.Join(dir, versionMarkerFile)
	return os.WriteFile(marker, []byte(id.NotBefore.Format(time.RFC3339)+"\n"), 0600)
}

// TLSConfig returns a server-side tls.Config presenting id's certificate.
func (id *Identity) TLSConfig() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{id.Cert},
		MinVersion:   tls.VersionTLS13,
	}
}
