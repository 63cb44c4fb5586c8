package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCIDRs(t *testing.T) {
	prefixes, err := ParseCIDRs("10.0.0.0/8, 127.0.0.1,,::1")
	require.NoError(t, err)
	require.Len(t, prefixes, 3)
	assert.Equal(t, "127.0.0.1/32", prefixes[1].String())
	assert.Equal(t, "::1/128", prefixes[2].String())

	_, err = ParseCIDRs("10.0.0.0/33")
	assert.Error(t, err)
	_, err = ParseCIDRs("localhost")
	assert.Error(t, err)
}

func TestIsAllowedIP(t *testing.T) {
	allowed, err := ParseCIDRs("10.0.0.0/8,::1")
	require.NoError(t, err)

	assert.True(t, IsAllowedIP("10.1.2.3:5555", allowed))
	assert.True(t, IsAllowedIP("10.1.2.3", allowed))
	assert.True(t, IsAllowedIP("[::1]:9090", allowed))
	assert.True(t, IsAllowedIP("[::ffff:10.0.0.1]:80", allowed))
	assert.False(t, IsAllowedIP("192.0.2.1:1234", allowed))
	assert.False(t, IsAllowedIP("not-an-ip", allowed))
	assert.False(t, IsAllowedIP("10.1.2.3:5555", nil))
}
