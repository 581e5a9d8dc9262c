package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$"))

	ok, err := Verify("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("wrong horse", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_Salted(t *testing.T) {
	h1, err := Hash("same-password")
	require.NoError(t, err)
	h2, err := Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestVerify_InvalidHash(t *testing.T) {
	for _, h := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=0$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
	} {
		ok, err := Verify("pw", h)
		assert.ErrorIs(t, err, ErrInvalidHash, "hash %q", h)
		assert.False(t, ok)
	}
}
