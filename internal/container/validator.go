// Package container validates decrypted EDB output. A container is a
// SQLite database, so the first 16 bytes of valid plaintext are always the
// SQLite magic literal. The check is exact and is the single correctness
// oracle for both the credential search and final acceptance.
package container

import (
	"bytes"

	"github.com/seanshin0214/kakaotalk-mcp/internal/types"
)

// IsValidHeader reports whether data begins with the SQLite magic literal.
func IsValidHeader(data []byte) bool {
	return len(data) >= types.HeaderSize && bytes.Equal(data[:types.HeaderSize], types.SQLiteMagic)
}
