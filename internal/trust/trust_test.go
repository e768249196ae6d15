package trust

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfSignedCert(t *testing.T, serial int64) *x509.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: "example.org"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestCheckReturnsNewForUnknownHost(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(filepath.Join(dir, "hosts"))
	require.NoError(t, err)

	cert := selfSignedCert(t, 1)
	result := store.Check("example.org", 1965, cert)
	assert.Equal(t, New, result.Decision)
	assert.NotEmpty(t, result.Fingerprint)
}

func TestCommitThenCheckReturnsOk(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(filepath.Join(dir, "hosts"))
	require.NoError(t, err)

	cert := selfSignedCert(t, 1)
	result := store.Check("example.org", 1965, cert)
	require.NoError(t, store.Commit("example.org", 1965, result.Fingerprint))

	result2 := store.Check("example.org", 1965, cert)
	assert.Equal(t, Ok, result2.Decision)
}

func TestCheckReturnsMismatchOnChangedCert(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(filepath.Join(dir, "hosts"))
	require.NoError(t, err)

	first := selfSignedCert(t, 1)
	result := store.Check("example.org", 1965, first)
	require.NoError(t, store.Commit("example.org", 1965, result.Fingerprint))

	second := selfSignedCert(t, 2)
	result2 := store.Check("example.org", 1965, second)
	assert.Equal(t, Mismatch, result2.Decision)
	assert.Equal(t, result.Fingerprint, result2.Previous)
	assert.NotEqual(t, result.Fingerprint, result2.Fingerprint)
}

func TestCommitPersistsAcrossLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts")

	store, err := Load(path)
	require.NoError(t, err)
	cert := selfSignedCert(t, 1)
	result := store.Check("example.org", 1965, cert)
	require.NoError(t, store.Commit("example.org", 1965, result.Fingerprint))

	reloaded, err := Load(path)
	require.NoError(t, err)
	result2 := reloaded.Check("example.org", 1965, cert)
	assert.Equal(t, Ok, result2.Decision)
}

func TestLoadSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts")
	contents := "example.org 1965 deadbeef 2024-01-01T00:00:00Z\n" +
		"this line is garbage\n" +
		"another.org notaport deadbeef 2024-01-01T00:00:00Z\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	store, err := Load(path)
	require.NoError(t, err)
	require.Len(t, store.records, 1)

	cert := selfSignedCert(t, 1)
	result := store.Check("example.org", 1965, cert)
	assert.Equal(t, Mismatch, result.Decision)
	assert.Equal(t, "deadbeef", result.Previous)
}

func TestFingerprintIsStableForSameCert(t *testing.T) {
	cert := selfSignedCert(t, 1)
	assert.Equal(t, Fingerprint(cert), Fingerprint(cert))
}
