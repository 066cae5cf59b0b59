package secrethash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	encoded, err := Hash("correct horse", DefaultParams())
	require.NoError(t, err)

	ok, err := Verify("correct horse", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("wrong password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	a, err := Hash("same password", DefaultParams())
	require.NoError(t, err)
	b, err := Hash("same password", DefaultParams())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
