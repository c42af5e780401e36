// Package edb orchestrates full container recovery: read an encrypted EDB
// file, discover or reuse credentials, decrypt the whole byte sequence with
// the window-wise cipher, validate the result, and extract message rows from
// the recovered SQLite database.
package edb

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/seanshin0214/kakaotalk-mcp/internal/blockcipher"
	"github.com/seanshin0214/kakaotalk-mcp/internal/container"
	"github.com/seanshin0214/kakaotalk-mcp/internal/credentials"
	"github.com/seanshin0214/kakaotalk-mcp/internal/device"
	"github.com/seanshin0214/kakaotalk-mcp/internal/keys"
	"github.com/seanshin0214/kakaotalk-mcp/internal/types"
)

// Options configures a Decryptor.
type Options struct {
	// Search configures the credential finder.
	Search credentials.Options

	// Logger receives structured progress and failure events.
	Logger zerolog.Logger
}

// Decryptor recovers plaintext from EDB containers produced by one
// installation. Credentials are discovered lazily on the first decrypt call
// and cached for the life of the instance; discarding the instance is the
// only way to expire the cache short of an explicit ResetCredentials.
type Decryptor struct {
	engine *blockcipher.Engine
	finder *credentials.Finder
	cache  *credentials.Cache
	logger zerolog.Logger
}

// NewDecryptor builds a decryptor from the external device-info collaborator.
// The device secret and candidate list are sourced exactly once, here.
func NewDecryptor(provider device.InfoProvider, opts Options) (*Decryptor, error) {
	secret, err := provider.DeviceInfo()
	if err != nil {
		return nil, fmt.Errorf("reading device info: %w", err)
	}

	ids, err := provider.NetworkKeyCandidates()
	if err != nil {
		return nil, fmt.Errorf("reading network key candidates: %w", err)
	}

	cache := credentials.NewCache()
	return &Decryptor{
		engine: blockcipher.NewEngine(),
		finder: credentials.NewFinder(secret, keys.CandidatesFromStrings(ids), cache, opts.Search, opts.Logger),
		cache:  cache,
		logger: opts.Logger,
	}, nil
}

// Credentials runs the credential search against the given container file
// without decrypting it fully.
func (d *Decryptor) Credentials(ctx context.Context, path string) (types.Credentials, error) {
	encrypted, err := os.ReadFile(path)
	if err != nil {
		return types.Credentials{}, fmt.Errorf("reading container %s: %w", path, err)
	}
	return d.finder.FindWorkingCredentials(ctx, encrypted)
}

// ResetCredentials drops any cached credentials.
func (d *Decryptor) ResetCredentials() {
	d.cache.Invalidate()
}

// DecryptFile reads the whole container and returns its plaintext. When a
// cached credential set decrypts the file to something that fails the header
// oracle, the cache is dropped and the search runs once against this file's
// bytes before giving up with ErrDecryptionFailed.
func (d *Decryptor) DecryptFile(ctx context.Context, path string) ([]byte, error) {
	encrypted, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading container %s: %w", path, err)
	}

	_, hadCached := d.cache.Get()

	plaintext, err := d.decrypt(ctx, encrypted)
	if err != nil {
		return nil, err
	}

	if !container.IsValidHeader(plaintext) {
		if hadCached {
			d.logger.Warn().Str("path", path).Msg("cached credentials produced invalid plaintext, searching this file")
			d.cache.Invalidate()
			plaintext, err = d.decrypt(ctx, encrypted)
			if err != nil {
				return nil, err
			}
			if container.IsValidHeader(plaintext) {
				return plaintext, nil
			}
		}
		return nil, fmt.Errorf("%w: output does not begin with the SQLite header", types.ErrDecryptionFailed)
	}

	return plaintext, nil
}

func (d *Decryptor) decrypt(ctx context.Context, encrypted []byte) ([]byte, error) {
	creds, err := d.finder.FindWorkingCredentials(ctx, encrypted)
	if err != nil {
		return nil, err
	}
	return d.engine.Decrypt(creds.Key[:], creds.IV[:], encrypted)
}

// DecryptToTempFile writes the full plaintext to a freshly created,
// exclusively-owned temporary file and returns its path together with a
// cleanup function. The cleanup removes the file at most once and must be
// called on every exit path, including failures of downstream use.
func (d *Decryptor) DecryptToTempFile(ctx context.Context, path string) (string, func(), error) {
	plaintext, err := d.DecryptFile(ctx, path)
	if err != nil {
		return "", nil, err
	}

	tmp, err := os.CreateTemp("", "edb-*.db")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}

	name := tmp.Name()
	if _, err := tmp.Write(plaintext); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", nil, fmt.Errorf("writing temp file %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", nil, fmt.Errorf("closing temp file %s: %w", name, err)
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
				d.logger.Warn().Str("path", name).Err(err).Msg("removing temp plaintext file")
			}
		})
	}
	return name, cleanup, nil
}
