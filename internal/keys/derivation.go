// Package keys implements the key derivation chain used by the KakaoTalk
// desktop client: device secrets and an adapter-derived key produce a pragma
// string, and the pragma together with a user id produces the AES key and IV
// that encrypt every EDB container.
package keys

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/seanshin0214/kakaotalk-mcp/internal/types"
)

// expandedLength is the size the pragma+userId string is grown to before
// hashing. The client duplicates the string onto itself until it reaches
// this length, then truncates.
const expandedLength = 512

// Pragma derives the intermediate pragma secret from the device identifiers
// and one network key candidate. The derivation is deterministic: the string
// "uuid|model|serial" is AES-CBC encrypted under the candidate key with a
// zero IV and PKCS#7 padding, hashed with SHA-512, and base64 encoded.
func Pragma(uuid, model, serial string, key []byte) (string, error) {
	if len(key) != types.KeySize {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", types.ErrInvalidKeyLength, types.KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	plain := pad([]byte(uuid+"|"+model+"|"+serial), aes.BlockSize)
	encrypted := make([]byte, len(plain))
	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, plain)

	digest := sha512.Sum512(encrypted)
	return base64.StdEncoding.EncodeToString(digest[:]), nil
}

// DeriveKeyAndIV derives the container AES key and IV from a pragma and a
// candidate user id. The concatenated string is self-duplicated to at least
// 512 bytes and truncated to exactly 512; the key is the MD5 of that string
// and the IV is the MD5 of the base64 form of the key.
func DeriveKeyAndIV(pragma string, userID int) (key, iv [types.KeySize]byte) {
	s := pragma + strconv.Itoa(userID)
	for len(s) < expandedLength {
		s += s
	}
	s = s[:expandedLength]

	key = md5.Sum([]byte(s))
	iv = md5.Sum([]byte(base64.StdEncoding.EncodeToString(key[:])))
	return key, iv
}

// pad applies PKCS#7 padding up to the given block size.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}
