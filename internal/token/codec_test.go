package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := NewCodec([]byte("test-secret-key"), nil)

	tokenString, err := codec.Encode("user-123", KindAccess, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := codec.Decode(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.NotEmpty(t, claims.ID, "nonce should be set")
}

func TestDecodeKindIsPreserved(t *testing.T) {
	codec := NewCodec([]byte("test-secret-key"), nil)

	tokenString, err := codec.Encode("user-123", KindRefresh, time.Hour)
	require.NoError(t, err)

	claims, err := codec.Decode(tokenString)
	require.NoError(t, err)
	assert.Equal(t, KindRefresh, claims.Kind)
}

func TestDecodeExpired(t *testing.T) {
	// Clock starts at a fixed point and is moved past the expiry for decode.
	current := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	codec := NewCodec([]byte("test-secret-key"), func() time.Time { return current })

	tokenString, err := codec.Encode("user-123", KindAccess, time.Hour)
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	_, err = codec.Decode(tokenString)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDecodeAtExpiryBoundary(t *testing.T) {
	current := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	codec := NewCodec([]byte("test-secret-key"), func() time.Time { return current })

	tokenString, err := codec.Encode("user-123", KindAccess, time.Hour)
	require.NoError(t, err)

	// Just before expiry the token is still valid.
	current = current.Add(time.Hour - time.Second)
	_, err = codec.Decode(tokenString)
	assert.NoError(t, err)

	// At expiry it is not.
	current = current.Add(2 * time.Second)
	_, err = codec.Decode(tokenString)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDecodeWrongSecret(t *testing.T) {
	codec := NewCodec([]byte("secret-one"), nil)
	other := NewCodec([]byte("secret-two"), nil)

	tokenString, err := codec.Encode("user-123", KindAccess, time.Hour)
	require.NoError(t, err)

	_, err = other.Decode(tokenString)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestDecodeMalformed(t *testing.T) {
	codec := NewCodec([]byte("test-secret-key"), nil)

	for _, tokenString := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := codec.Decode(tokenString)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", tokenString)
	}
}

func TestDistinctKeysCanCoexist(t *testing.T) {
	// Two codecs with distinct keys, as used for key rotation in tests.
	oldCodec := NewCodec([]byte("old-key"), nil)
	newCodec := NewCodec([]byte("new-key"), nil)

	tokenString, err := oldCodec.Encode("user-123", KindAccess, time.Hour)
	require.NoError(t, err)

	_, err = oldCodec.Decode(tokenString)
	assert.NoError(t, err)

	_, err = newCodec.Decode(tokenString)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}
