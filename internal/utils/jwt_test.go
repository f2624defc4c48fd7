package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateJWT(7, "admin@nexusmart.shop", true)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "admin@nexusmart.shop", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "nexusmart-api", claims.Issuer)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	InitJWT("secret-a")
	token, err := GenerateJWT(7, "a@x.com", false)
	require.NoError(t, err)

	InitJWT("secret-b")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestValidateJWT_Garbage(t *testing.T) {
	InitJWT("test-secret")

	_, err := ValidateJWT("not.a.token")
	assert.Error(t, err)
}
