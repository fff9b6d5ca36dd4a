package jwtutil

import (
	"testing"

	"github.com/inv-nithin007/School-manager/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestConfig() {
	Initialize(&config.JWTConfig{
		SigningKey:             "test-signing-key",
		ExpirationHours:        1,
		RefreshExpirationHours: 24,
	})
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	initTestConfig()

	pair, err := GenerateTokenPair("jane", "jane@example.com", 42, "teacher")
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	claims, err := ValidateToken(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "jane", claims.Username)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "teacher", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	refreshClaims, err := ValidateToken(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
}

func TestValidateAccessTokenRejectsRefresh(t *testing.T) {
	initTestConfig()

	pair, err := GenerateTokenPair("jane", "jane@example.com", 42, "student")
	require.NoError(t, err)

	_, err = ValidateAccessToken(pair.Access)
	assert.NoError(t, err)

	_, err = ValidateAccessToken(pair.Refresh)
	assert.Error(t, err)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	initTestConfig()

	pair, err := GenerateTokenPair("jane", "jane@example.com", 42, "student")
	require.NoError(t, err)

	_, err = ValidateToken(pair.Access + "x")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	initTestConfig()
	pair, err := GenerateTokenPair("jane", "jane@example.com", 42, "student")
	require.NoError(t, err)

	Initialize(&config.JWTConfig{
		SigningKey:             "another-key",
		ExpirationHours:        1,
		RefreshExpirationHours: 24,
	})
	_, err = ValidateToken(pair.Access)
	assert.Error(t, err)
}
