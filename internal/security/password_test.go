package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("console-secret")
	require.NoError(t, err)

	ok, err := VerifyPassword("console-secret", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyPasswordRejectsGarbageHash(t *testing.T) {
	_, err := VerifyPassword("anything", []byte("not-a-hash"))
	require.ErrorIs(t, err, ErrMalformedHash)
}

func TestVerifyPasswordParsesEveryHashSegment(t *testing.T) {
	hash, err := HashPassword("console-secret")
	require.NoError(t, err)

	// The encoded form carries salt and digest as separate $-delimited
	// segments; both must survive parsing for verification to work.
	require.Equal(t, 6, len(strings.Split(string(hash), "$")))

	ok, err := VerifyPassword("console-secret", hash)
	require.NoError(t, err)
	require.True(t, ok)
}
