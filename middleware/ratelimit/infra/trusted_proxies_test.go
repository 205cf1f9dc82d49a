package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustedProxies_MatchesBlocksAndSingleAddresses(t *testing.T) {
	tp, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.10 ", "", "::1", "fd00::/8"})
	require.NoError(t, err)
	assert.Equal(t, 4, tp.Len())

	assert.True(t, tp.Contains("10.1.2.3"))
	assert.True(t, tp.Contains("192.168.1.10"))
	assert.True(t, tp.Contains("::1"))
	assert.True(t, tp.Contains("fd12:3456::1"))

	assert.False(t, tp.Contains("11.0.0.1"))
	assert.False(t, tp.Contains("192.168.1.11"))
	assert.False(t, tp.Contains("2001:db8::1"))
	assert.False(t, tp.Contains("not-an-ip"))
	assert.False(t, tp.Contains(""))
}

func TestTrustedProxies_RejectsInvalidEntries(t *testing.T) {
	_, err := ParseTrustedProxies([]string{"10.0.0.0/8", "proxy.internal"})
	assert.Error(t, err)
}

func TestTrustedProxies_NilIsEmpty(t *testing.T) {
	var tp *TrustedProxies
	assert.Equal(t, 0, tp.Len())
	assert.False(t, tp.Contains("10.0.0.1"))
}
