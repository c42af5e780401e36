package keys

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/seanshin0214/kakaotalk-mcp/internal/types"
)

// separators strips the punctuation found in registry-style adapter
// identifiers such as "{96C2F3B1-DB13-4D4E-8C5A-01FE2D8E1A90}".
var separators = strings.NewReplacer("{", "", "}", "", "-", "")

// ParseNetworkKey normalizes one adapter identifier into a 16-byte key
// candidate. GUID-form identifiers are parsed directly; anything else is
// stripped of separator punctuation and hex decoded.
func ParseNetworkKey(s string) (types.NetworkKey, error) {
	var nk types.NetworkKey

	if id, err := uuid.Parse(s); err == nil {
		copy(nk[:], id[:])
		return nk, nil
	}

	raw, err := hex.DecodeString(separators.Replace(s))
	if err != nil {
		return nk, fmt.Errorf("network key %q is not hex: %w", s, err)
	}
	if len(raw) != types.KeySize {
		return nk, fmt.Errorf("%w: network key %q decodes to %d bytes", types.ErrInvalidKeyLength, s, len(raw))
	}

	copy(nk[:], raw)
	return nk, nil
}

// CandidatesFromStrings converts adapter identifiers into key candidates,
// preserving discovery order and silently skipping malformed entries.
func CandidatesFromStrings(ids []string) []types.NetworkKey {
	candidates := make([]types.NetworkKey, 0, len(ids))
	for _, id := range ids {
		nk, err := ParseNetworkKey(id)
		if err != nil {
			continue
		}
		candidates = append(candidates, nk)
	}
	return candidates
}
