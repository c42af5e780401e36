// Package types defines the core value types and sentinel errors shared by
// the EDB recovery packages.
package types

import "fmt"

const (
	// KeySize is the AES key length used throughout the EDB scheme.
	KeySize = 16

	// IVSize is the AES-CBC initialization vector length.
	IVSize = 16

	// WindowSize is the unit of the client's block-wise encryption scheme.
	// Every 4096-byte window of a container is an independent CBC stream.
	WindowSize = 4096

	// HeaderSize is the length of the SQLite magic prefix.
	HeaderSize = 16
)

// SQLiteMagic is the fixed 16-byte prefix of every valid decrypted container.
var SQLiteMagic = []byte("SQLite format 3\x00")

var (
	ErrInvalidKeyLength    = fmt.Errorf("invalid key length")
	ErrBlockLengthMismatch = fmt.Errorf("ciphertext window is not a multiple of the cipher block size")
	ErrMissingDeviceInfo   = fmt.Errorf("incomplete device info")
	ErrCredentialsNotFound = fmt.Errorf("credentials not found")
	ErrDecryptionFailed    = fmt.Errorf("decryption failed")
)

// DeviceSecret holds the machine-identifying values the client stored at
// install time. The values are opaque strings read once from an external
// collaborator and never change for the life of the process.
type DeviceSecret struct {
	UUID   string
	Model  string
	Serial string
}

// Complete reports whether every field is populated.
func (d DeviceSecret) Complete() bool {
	return d.UUID != "" && d.Model != "" && d.Serial != ""
}

// NetworkKey is a 16-byte key candidate decoded from a network adapter
// identifier. Zero or more candidates exist per machine.
type NetworkKey [KeySize]byte

// Credentials is the winning combination recovered by the brute-force
// search. UserID is a small positive integer that is never stored anywhere
// readable; it is discovered by search and cached by the owning decryptor.
type Credentials struct {
	NetworkKey NetworkKey
	Pragma     string
	UserID     int
	Key        [KeySize]byte
	IV         [IVSize]byte
}
