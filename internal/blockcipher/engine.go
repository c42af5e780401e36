// Package blockcipher implements the non-standard block-wise AES-CBC scheme
// used for EDB containers. The ciphertext is a sequence of 4096-byte windows
// and every window is an independent CBC stream started from the same IV.
package blockcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/seanshin0214/kakaotalk-mcp/internal/types"
)

// Engine decrypts and encrypts EDB containers window by window.
type Engine struct{}

// NewEngine creates a new block cipher engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Decrypt decrypts an arbitrary-length ciphertext. Each 4096-byte window is
// decrypted with a fresh CBC decrypter using the original IV; the CBC state
// is never carried across windows. A standard whole-file chained decrypt
// would corrupt every window after the first. The output has the same length
// as the input and no padding is removed.
func (e *Engine) Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := e.newCipher(key, iv)
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, len(ciphertext))
	for offset := 0; offset < len(ciphertext); offset += types.WindowSize {
		end := offset + types.WindowSize
		if end > len(ciphertext) {
			end = len(ciphertext)
		}
		window := ciphertext[offset:end]
		if len(window)%aes.BlockSize != 0 {
			return nil, fmt.Errorf("%w: window at offset %d has %d bytes", types.ErrBlockLengthMismatch, offset, len(window))
		}
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext[offset:end], window)
	}

	return plaintext, nil
}

// DecryptFirstWindow decrypts at most the first window. The brute-force
// search uses it to keep per-attempt work constant: one window decrypt plus
// a 16-byte compare.
func (e *Engine) DecryptFirstWindow(key, iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) > types.WindowSize {
		ciphertext = ciphertext[:types.WindowSize]
	}
	return e.Decrypt(key, iv, ciphertext)
}

// Encrypt is the inverse of Decrypt: every window is encrypted with a fresh
// CBC encrypter using the same IV. The plaintext length must already be a
// multiple of the cipher block size; no padding is added.
func (e *Engine) Encrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := e.newCipher(key, iv)
	if err != nil {
		return nil, err
	}

	ciphertext := make([]byte, len(plaintext))
	for offset := 0; offset < len(plaintext); offset += types.WindowSize {
		end := offset + types.WindowSize
		if end > len(plaintext) {
			end = len(plaintext)
		}
		window := plaintext[offset:end]
		if len(window)%aes.BlockSize != 0 {
			return nil, fmt.Errorf("%w: window at offset %d has %d bytes", types.ErrBlockLengthMismatch, offset, len(window))
		}
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext[offset:end], window)
	}

	return ciphertext, nil
}

func (e *Engine) newCipher(key, iv []byte) (cipher.Block, error) {
	if len(key) != types.KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", types.ErrInvalidKeyLength, types.KeySize, len(key))
	}
	if len(iv) != types.IVSize {
		return nil, fmt.Errorf("%w: IV must be %d bytes, got %d", types.ErrInvalidKeyLength, types.IVSize, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return block, nil
}
