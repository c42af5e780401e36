package keys

import (
	"encoding/base64"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanshin0214/kakaotalk-mcp/internal/types"
)

func TestPragmaIsDeterministic(t *testing.T) {
	key := make([]byte, types.KeySize)
	for i := range key {
		key[i] = byte(i)
	}

	first, err := Pragma("uuid-1", "model-1", "serial-1", key)
	require.NoError(t, err, "pragma derivation should succeed for a 16-byte key")

	second, err := Pragma("uuid-1", "model-1", "serial-1", key)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs should derive identical pragmas")
}

func TestPragmaIsFixedLength(t *testing.T) {
	key := make([]byte, types.KeySize)

	pragma, err := Pragma("u", "m", "s", key)
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(pragma)
	require.NoError(t, err, "pragma should be valid base64")
	assert.Len(t, decoded, 64, "pragma should encode a SHA-512 digest")
}

func TestPragmaVariesWithInputs(t *testing.T) {
	key := make([]byte, types.KeySize)

	base, err := Pragma("u", "m", "s", key)
	require.NoError(t, err)

	otherUUID, err := Pragma("u2", "m", "s", key)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherUUID, "changing the uuid should change the pragma")

	otherKey := make([]byte, types.KeySize)
	otherKey[0] = 1
	differentKey, err := Pragma("u", "m", "s", otherKey)
	require.NoError(t, err)
	assert.NotEqual(t, base, differentKey, "changing the network key should change the pragma")
}

func TestPragmaRejectsBadKeyLength(t *testing.T) {
	for _, size := range []int{0, 15, 17, 32} {
		_, err := Pragma("u", "m", "s", make([]byte, size))
		assert.ErrorIs(t, err, types.ErrInvalidKeyLength, "key of %d bytes should be rejected", size)
	}
}

func TestDeriveKeyAndIVKnownRelation(t *testing.T) {
	key, iv := DeriveKeyAndIV("some-pragma-value", 42)

	assert.NotEqual(t, key, iv, "key and IV should differ")
	assert.NotEqual(t, [types.KeySize]byte{}, key, "key should not be all zeros")
	assert.NotEqual(t, [types.KeySize]byte{}, iv, "IV should not be all zeros")
}

func TestDeriveKeyAndIVVariesWithUserID(t *testing.T) {
	k1, i1 := DeriveKeyAndIV("pragma", 1)
	k2, i2 := DeriveKeyAndIV("pragma", 2)

	assert.NotEqual(t, k1, k2, "different user ids should derive different keys")
	assert.NotEqual(t, i1, i2, "different user ids should derive different IVs")
}

func TestDeriveKeyAndIVProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("derivation is deterministic", prop.ForAll(
		func(pragma string, userID int) bool {
			k1, i1 := DeriveKeyAndIV(pragma, userID)
			k2, i2 := DeriveKeyAndIV(pragma, userID)
			return k1 == k2 && i1 == i2
		},
		gen.AlphaString(),
		gen.IntRange(1, 1<<30),
	))

	properties.Property("neighboring user ids never collide", prop.ForAll(
		func(pragma string, userID int) bool {
			k1, _ := DeriveKeyAndIV(pragma, userID)
			k2, _ := DeriveKeyAndIV(pragma, userID+1)
			return k1 != k2
		},
		gen.AlphaString(),
		gen.IntRange(1, 1<<30),
	))

	properties.TestingRun(t)
}
