package auth

import (
	"encoding/base64"
	"testing"
	"time"

	"todo-web/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestJWTConfig() *JWTConfig {
	return &JWTConfig{
		SecretKey:            "test-secret-key-32-characters!!",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		Issuer:               "test-todo-web",
	}
}

func getTestUser() *models.User {
	return &models.User{
		ID:          uuid.New(),
		Email:       "test@example.com",
		DisplayName: "Test User",
		Role:        models.RoleUser,
		IsActive:    true,
	}
}

func TestGenerateAccessToken(t *testing.T) {
	cfg := getTestJWTConfig()
	user := getTestUser()

	t.Run("token carries the user claims", func(t *testing.T) {
		token, err := GenerateAccessToken(user, cfg)
		require.NoError(t, err)

		claims, err := ValidateAccessToken(token, cfg)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, user.Email, claims.Email)
		assert.Equal(t, user.DisplayName, claims.DisplayName)
		assert.Equal(t, user.Role, claims.Role)
		assert.Equal(t, cfg.Issuer, claims.Issuer)
		assert.Equal(t, user.ID.String(), claims.Subject)
	})

	t.Run("tokens issued back to back differ", func(t *testing.T) {
		first, err := GenerateAccessToken(user, cfg)
		require.NoError(t, err)
		second, err := GenerateAccessToken(user, cfg)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestGenerateRefreshToken(t *testing.T) {
	first, err := GenerateRefreshToken()
	require.NoError(t, err)
	second, err := GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	decoded, err := base64.URLEncoding.DecodeString(first)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
}

func TestValidateAccessToken(t *testing.T) {
	cfg := getTestJWTConfig()
	user := getTestUser()

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ValidateAccessToken("invalid-token", cfg)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects token with wrong secret", func(t *testing.T) {
		token, err := GenerateAccessToken(user, cfg)
		require.NoError(t, err)

		other := *cfg
		other.SecretKey = "wrong-secret-key-32-characters!"

		_, err = ValidateAccessToken(token, &other)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects token from another issuer", func(t *testing.T) {
		other := *cfg
		other.Issuer = "someone-else"
		token, err := GenerateAccessToken(user, &other)
		require.NoError(t, err)

		_, err = ValidateAccessToken(token, cfg)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("reports expiry", func(t *testing.T) {
		expired := *cfg
		expired.AccessTokenDuration = -time.Hour
		token, err := GenerateAccessToken(user, &expired)
		require.NoError(t, err)

		_, err = ValidateAccessToken(token, cfg)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		token   string
		wantErr error
	}{
		{"valid bearer token", "Bearer test-token-123", "test-token-123", nil},
		{"empty header", "", "", ErrMissingToken},
		{"no prefix", "test-token-123", "", ErrMalformedHeader},
		{"prefix only", "Bearer ", "", ErrMalformedHeader},
		{"wrong case", "bearer test-token-123", "", ErrMalformedHeader},
		{"basic scheme", "Basic dXNlcjpwYXNz", "", ErrMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ExtractBearerToken(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestNewJWTConfigFromEnv(t *testing.T) {
	t.Run("uses default values when env vars not set", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "")
		t.Setenv("JWT_ACCESS_TOKEN_MINUTES", "")
		t.Setenv("JWT_REFRESH_TOKEN_DAYS", "")
		t.Setenv("JWT_ISSUER", "")

		cfg := NewJWTConfigFromEnv()

		assert.True(t, cfg.UsesDevelopmentSecret())
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenDuration)
		assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenDuration)
		assert.Equal(t, "todo-web", cfg.Issuer)
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "production-secret")
		t.Setenv("JWT_ACCESS_TOKEN_MINUTES", "5")
		t.Setenv("JWT_REFRESH_TOKEN_DAYS", "30")

		cfg := NewJWTConfigFromEnv()

		assert.False(t, cfg.UsesDevelopmentSecret())
		assert.Equal(t, 5*time.Minute, cfg.AccessTokenDuration)
		assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenDuration)
	})
}
