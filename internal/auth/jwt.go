package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-web/internal/config"
	"todo-web/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("authorization header is missing")
	ErrMalformedHeader  = errors.New("authorization header must be 'Bearer <token>'")
)

// DevelopmentSecret signs tokens when JWT_SECRET_KEY is unset. Never deploy with it.
const DevelopmentSecret = "INSECURE_DEFAULT_SECRET_CHANGE_THIS_IN_PRODUCTION"

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SecretKey            string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	Issuer               string
}

// NewJWTConfigFromEnv creates a JWT config from environment variables
func NewJWTConfigFromEnv() *JWTConfig {
	return &JWTConfig{
		SecretKey:            config.GetEnv("JWT_SECRET_KEY", DevelopmentSecret),
		AccessTokenDuration:  time.Duration(config.GetEnvInt("JWT_ACCESS_TOKEN_MINUTES", 15)) * time.Minute,
		RefreshTokenDuration: time.Duration(config.GetEnvInt("JWT_REFRESH_TOKEN_DAYS", 7)) * 24 * time.Hour,
		Issuer:               config.GetEnv("JWT_ISSUER", "todo-web"),
	}
}

// UsesDevelopmentSecret reports whether tokens are signed with the built-in secret
func (c *JWTConfig) UsesDevelopmentSecret() bool {
	return c.SecretKey == DevelopmentSecret
}

// Claims represents the JWT claims
type Claims struct {
	UserID      uuid.UUID       `json:"user_id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name,omitempty"`
	Role        models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a short lived HS256 access token for user
func GenerateAccessToken(user *models.User, cfg *JWTConfig) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(), // two tokens issued in the same second still differ
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    cfg.Issuer,
			Subject:   user.ID.String(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SecretKey))
}

// GenerateRefreshToken returns 32 random bytes, base64url encoded
func GenerateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// ValidateAccessToken checks signature, expiry and issuer of an access token
func ValidateAccessToken(tokenString string, cfg *JWTConfig) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method: %v", ErrInvalidSignature, token.Header["alg"])
		}
		return []byte(cfg.SecretKey), nil
	}, jwt.WithIssuer(cfg.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractBearerToken returns the token of an "Authorization: Bearer <token>" header
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", ErrMalformedHeader
	}
	return token, nil
}
