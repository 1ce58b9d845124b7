package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	token, err := GenerateAccessToken(42, true)
	require.NoError(t, err)

	claims, err := ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	_, err := ParseAndValidate("not-a-token")
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	token, err := GenerateAccessToken(1, false)
	require.NoError(t, err)

	t.Setenv("AUTH_JWT_SECRET", "other-secret")
	_, err = ParseAndValidate(token)
	assert.Error(t, err)
}
