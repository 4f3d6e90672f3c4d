package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floragems/floragems-backend/pkg/config"
	"github.com/floragems/floragems-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "floragems-test",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: userID, Role: enums.RoleCustomer})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.RoleCustomer, claims.Role)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestMintRejectsInvalidRole(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: "superuser"})
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleAdmin})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer})
	require.NoError(t, err)

	other := cfg
	other.Secret = "different"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)
}
