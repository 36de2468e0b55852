package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_ProducesVerifiableHash(t *testing.T) {
	hash, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)
	assert.True(t, Compare("correct horse battery staple", hash))
}

func TestCompare_WrongPassword(t *testing.T) {
	hash, err := Hash("secret-password")
	require.NoError(t, err)
	assert.False(t, Compare("other-password", hash))
}

func TestCompare_GarbageHash(t *testing.T) {
	assert.False(t, Compare("anything", "not-a-bcrypt-hash"))
}

func TestHash_SaltsDiffer(t *testing.T) {
	h1, err := Hash("same-input")
	require.NoError(t, err)
	h2, err := Hash("same-input")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
