package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.NoError(t, CheckPasswordHash(hash, "secret123"))
	assert.Error(t, CheckPasswordHash(hash, "secret124"))
}

func TestCheckPasswordPolicy(t *testing.T) {
	cases := map[string]bool{
		"abc123":      false,
		"abcdefgh":    false,
		"12345678":    false,
		"abcd1234":    true,
		"Campus2024!": true,
	}
	for pw, ok := range cases {
		err := CheckPasswordPolicy(pw)
		if ok {
			assert.NoError(t, err, pw)
		} else {
			assert.ErrorIs(t, err, ErrWeakPassword, pw)
		}
	}
}
