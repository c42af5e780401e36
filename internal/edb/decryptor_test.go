package edb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanshin0214/kakaotalk-mcp/internal/blockcipher"
	"github.com/seanshin0214/kakaotalk-mcp/internal/credentials"
	"github.com/seanshin0214/kakaotalk-mcp/internal/device"
	"github.com/seanshin0214/kakaotalk-mcp/internal/keys"
	"github.com/seanshin0214/kakaotalk-mcp/internal/types"
)

const testNetworkKey = "00112233445566778899AABBCCDDEEFF"

var testSecret = types.DeviceSecret{UUID: "U", Model: "M", Serial: "S"}

// testPragma derives the pragma the test containers are encrypted under.
func testPragma(t *testing.T) string {
	t.Helper()
	networkKey, err := keys.ParseNetworkKey(testNetworkKey)
	require.NoError(t, err)
	pragma, err := keys.Pragma(testSecret.UUID, testSecret.Model, testSecret.Serial, networkKey[:])
	require.NoError(t, err)
	return pragma
}

// writeContainer encrypts the plaintext under (pragma, userID) and writes it
// to a fresh .edb file.
func writeContainer(t *testing.T, plaintext []byte, userID int) string {
	t.Helper()
	key, iv := keys.DeriveKeyAndIV(testPragma(t), userID)
	ciphertext, err := blockcipher.NewEngine().Encrypt(key[:], iv[:], plaintext)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "chatLogs_test.edb")
	require.NoError(t, os.WriteFile(path, ciphertext, 0o600))
	return path
}

// syntheticPlaintext builds a magic-header-prefixed plaintext of the given size.
func syntheticPlaintext(size int) []byte {
	data := make([]byte, size)
	copy(data, types.SQLiteMagic)
	for i := types.HeaderSize; i < size; i++ {
		data[i] = byte(i)
	}
	return data
}

func newTestDecryptor(t *testing.T, maxAttempts int) *Decryptor {
	t.Helper()
	provider := &device.StaticProvider{Secret: testSecret, Keys: []string{testNetworkKey}}
	decryptor, err := NewDecryptor(provider, Options{
		Logger: zerolog.Nop(),
		Search: credentials.Options{MaxAttempts: maxAttempts},
	})
	require.NoError(t, err)
	return decryptor
}

func TestDecryptFileEndToEnd(t *testing.T) {
	plaintext := syntheticPlaintext(3 * types.WindowSize)
	path := writeContainer(t, plaintext, 42)

	decryptor := newTestDecryptor(t, 100)

	recovered, err := decryptor.DecryptFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, plaintext, recovered, "the full container should round-trip")

	creds, err := decryptor.Credentials(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 42, creds.UserID, "the search should report the id the container was built with")
}

func TestDecryptFileReusesCredentialsAcrossFiles(t *testing.T) {
	first := writeContainer(t, syntheticPlaintext(types.WindowSize), 7)
	second := writeContainer(t, syntheticPlaintext(2*types.WindowSize), 7)

	decryptor := newTestDecryptor(t, 50)

	_, err := decryptor.DecryptFile(context.Background(), first)
	require.NoError(t, err)

	recovered, err := decryptor.DecryptFile(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, syntheticPlaintext(2*types.WindowSize), recovered,
		"cached credentials should decrypt subsequent files from the same installation")
}

func TestDecryptFileMissingFile(t *testing.T) {
	decryptor := newTestDecryptor(t, 10)

	_, err := decryptor.DecryptFile(context.Background(), filepath.Join(t.TempDir(), "nope.edb"))
	assert.Error(t, err, "a missing source file should surface an IO failure")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecryptFileSearchExhausted(t *testing.T) {
	path := writeContainer(t, syntheticPlaintext(types.WindowSize), 42)

	decryptor := newTestDecryptor(t, 10)

	_, err := decryptor.DecryptFile(context.Background(), path)
	assert.ErrorIs(t, err, types.ErrCredentialsNotFound)
}

func TestResetCredentialsForcesNewSearch(t *testing.T) {
	path := writeContainer(t, syntheticPlaintext(types.WindowSize), 7)

	decryptor := newTestDecryptor(t, 50)

	first, err := decryptor.Credentials(context.Background(), path)
	require.NoError(t, err)

	decryptor.ResetCredentials()

	second, err := decryptor.Credentials(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, first, second, "a fresh search should rediscover the same credentials")
}

func TestDecryptToTempFileCleanup(t *testing.T) {
	plaintext := syntheticPlaintext(types.WindowSize)
	path := writeContainer(t, plaintext, 7)

	decryptor := newTestDecryptor(t, 50)

	tmpPath, cleanup, err := decryptor.DecryptToTempFile(context.Background(), path)
	require.NoError(t, err)

	written, err := os.ReadFile(tmpPath)
	require.NoError(t, err)
	assert.Equal(t, plaintext, written, "the temp file should hold the full plaintext")

	cleanup()
	_, err = os.Stat(tmpPath)
	assert.ErrorIs(t, err, os.ErrNotExist, "cleanup should delete the temp file")

	// A second call must be a no-op.
	assert.NotPanics(t, cleanup)
}

func TestExtractMessagesDeletesTempFileOnFalsePositive(t *testing.T) {
	// A container whose plaintext carries the magic header but is not a
	// SQLite database: the header oracle passes, the relational open fails,
	// and the temp plaintext file must still be deleted.
	path := writeContainer(t, syntheticPlaintext(types.WindowSize), 7)

	decryptor := newTestDecryptor(t, 50)

	before := listTempPlaintexts(t)

	_, _, err := decryptor.ExtractMessages(context.Background(), path)
	assert.Error(t, err, "a false-positive header should fail at the relational open")

	assert.Equal(t, before, listTempPlaintexts(t), "no temp plaintext file should survive the failure")
}

// listTempPlaintexts snapshots the decryptor's temp files present in the
// OS temp directory.
func listTempPlaintexts(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "edb-*.db"))
	require.NoError(t, err)
	return matches
}
