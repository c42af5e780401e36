// Package credentials recovers the unknown per-installation identifier and
// network key by bounded brute-force search. The true adapter key the client
// used at install time cannot be read back by inspection, so key recovery is
// framed as search-and-verify: derive candidate keys, decrypt only the first
// container window, and accept the first candidate whose plaintext passes
// the SQLite header oracle.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/seanshin0214/kakaotalk-mcp/internal/blockcipher"
	"github.com/seanshin0214/kakaotalk-mcp/internal/container"
	"github.com/seanshin0214/kakaotalk-mcp/internal/keys"
	"github.com/seanshin0214/kakaotalk-mcp/internal/types"
)

// DefaultMaxAttempts bounds the user id search per network key candidate.
// It is deliberately smaller than a single-key exhaustive search so total
// cost stays bounded across candidates.
const DefaultMaxAttempts = 50000

// progressInterval is how many attempts pass between progress notifications.
const progressInterval = 10000

// Progress receives periodic notifications during a search. It is
// observability only and has no behavioral effect.
type Progress func(attempted, bound int)

// ReusePolicy controls whether cached credentials are trusted across
// different container files.
type ReusePolicy int

const (
	// TrustCache reuses cached credentials blindly; a fresh search happens
	// only after a validation failure. This is the default.
	TrustCache ReusePolicy = iota

	// RevalidatePerFile re-checks cached credentials against each new
	// file's first window before reusing them.
	RevalidatePerFile
)

// ParseReusePolicy converts a configuration string into a ReusePolicy.
func ParseReusePolicy(s string) (ReusePolicy, error) {
	switch s {
	case "", "trust-cache":
		return TrustCache, nil
	case "revalidate":
		return RevalidatePerFile, nil
	default:
		return TrustCache, fmt.Errorf("unknown reuse policy %q (want trust-cache or revalidate)", s)
	}
}

// Options configures a Finder.
type Options struct {
	// MaxAttempts bounds the user id search per candidate.
	// DefaultMaxAttempts is used when zero.
	MaxAttempts int

	// Workers sets the search parallelism. Values below 2 keep the search
	// sequential.
	Workers int

	// ReusePolicy controls cached-credential reuse across files.
	ReusePolicy ReusePolicy

	// Progress, when set, receives periodic search notifications.
	Progress Progress
}

// Finder brute-forces working credentials for one installation.
type Finder struct {
	secret     types.DeviceSecret
	candidates []types.NetworkKey
	cache      *Cache
	engine     *blockcipher.Engine
	opts       Options
	logger     zerolog.Logger
}

// NewFinder creates a finder over the given device secret and network key
// candidates. The cache is owned by the caller so its lifetime matches the
// decryptor instance, not the process.
func NewFinder(secret types.DeviceSecret, candidates []types.NetworkKey, cache *Cache, opts Options, logger zerolog.Logger) *Finder {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Finder{
		secret:     secret,
		candidates: candidates,
		cache:      cache,
		engine:     blockcipher.NewEngine(),
		opts:       opts,
		logger:     logger,
	}
}

// FindUserID sequentially tries candidate identifiers 1..maxAttempts against
// the given pragma, decrypting only the first window of the ciphertext and
// checking it against the header oracle. It returns the smallest identifier
// that validates, or ErrCredentialsNotFound after exhausting the bound.
func (f *Finder) FindUserID(ctx context.Context, pragma string, ciphertext []byte, maxAttempts int) (int, error) {
	if f.opts.Workers > 1 {
		return f.findUserIDParallel(ctx, pragma, ciphertext, maxAttempts)
	}

	for userID := 1; userID <= maxAttempts; userID++ {
		key, iv := keys.DeriveKeyAndIV(pragma, userID)
		window, err := f.engine.DecryptFirstWindow(key[:], iv[:], ciphertext)
		if err != nil {
			return 0, err
		}
		if container.IsValidHeader(window) {
			return userID, nil
		}

		if userID%progressInterval == 0 {
			f.notify(userID, maxAttempts)
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
	}

	return 0, fmt.Errorf("%w: exhausted %d user ids", types.ErrCredentialsNotFound, maxAttempts)
}

// FindWorkingCredentials resolves the full credential set for the given
// ciphertext. Cached credentials are returned according to the reuse policy;
// otherwise each network key candidate is tried in discovery order with a
// capped user id search. The first success is committed to the cache exactly
// once and returned.
func (f *Finder) FindWorkingCredentials(ctx context.Context, ciphertext []byte) (types.Credentials, error) {
	if !f.secret.Complete() {
		return types.Credentials{}, types.ErrMissingDeviceInfo
	}

	if creds, ok := f.cache.Get(); ok {
		if f.opts.ReusePolicy == TrustCache {
			return creds, nil
		}
		window, err := f.engine.DecryptFirstWindow(creds.Key[:], creds.IV[:], ciphertext)
		if err == nil && container.IsValidHeader(window) {
			return creds, nil
		}
		f.logger.Warn().Int("user_id", creds.UserID).Msg("cached credentials failed revalidation, searching again")
		f.cache.Invalidate()
	}

	for i, networkKey := range f.candidates {
		pragma, err := keys.Pragma(f.secret.UUID, f.secret.Model, f.secret.Serial, networkKey[:])
		if err != nil {
			return types.Credentials{}, fmt.Errorf("deriving pragma for candidate %d: %w", i, err)
		}

		userID, err := f.FindUserID(ctx, pragma, ciphertext, f.opts.MaxAttempts)
		if err != nil {
			if errors.Is(err, types.ErrCredentialsNotFound) {
				f.logger.Debug().Int("candidate", i).Msg("network key candidate exhausted")
				continue
			}
			return types.Credentials{}, err
		}

		key, iv := keys.DeriveKeyAndIV(pragma, userID)
		creds := types.Credentials{
			NetworkKey: networkKey,
			Pragma:     pragma,
			UserID:     userID,
			Key:        key,
			IV:         iv,
		}
		f.cache.Commit(creds)
		f.logger.Info().Int("user_id", userID).Int("candidate", i).Msg("working credentials found")

		// Another search path may have committed first; the cached value
		// is authoritative.
		if cached, ok := f.cache.Get(); ok {
			return cached, nil
		}
		return creds, nil
	}

	return types.Credentials{}, fmt.Errorf("%w: tried %d network key candidates", types.ErrCredentialsNotFound, len(f.candidates))
}

func (f *Finder) notify(attempted, bound int) {
	if f.opts.Progress != nil {
		f.opts.Progress(attempted, bound)
	}
}
