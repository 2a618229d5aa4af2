package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-web/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExists   = errors.New("user with this email already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserInactive        = errors.New("user account is inactive")
	ErrRefreshTokenInvalid = errors.New("refresh token is invalid or expired")
)

// Service is the identity provider: accounts, password checks and token issuance
type Service struct {
	db        *gorm.DB
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service
func NewService(db *gorm.DB, jwtConfig *JWTConfig) *Service {
	return &Service{
		db:        db,
		jwtConfig: jwtConfig,
	}
}

// JWTConfig returns the token settings the service signs with
func (s *Service) JWTConfig() *JWTConfig {
	return s.jwtConfig
}

// Register creates an active user account with the default role
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login checks the credentials and issues a token pair
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if err := VerifyPassword(req.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return s.issueTokens(ctx, &user)
}

// RefreshAccessToken exchanges a valid refresh token for a new token pair
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	var stored models.RefreshToken
	err := s.db.WithContext(ctx).Preload("User").Where("token = ?", hashToken(refreshToken)).First(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRefreshTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	if !stored.IsValid() {
		return nil, ErrRefreshTokenInvalid
	}
	if !stored.User.IsActive {
		return nil, ErrUserInactive
	}

	return s.issueTokens(ctx, &stored.User)
}

// RefreshTokenOwner returns the user a still valid refresh token was issued to
func (s *Service) RefreshTokenOwner(ctx context.Context, refreshToken string) (uuid.UUID, error) {
	var stored models.RefreshToken
	err := s.db.WithContext(ctx).Where("token = ?", hashToken(refreshToken)).First(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, ErrRefreshTokenInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	if !stored.IsValid() {
		return uuid.Nil, ErrRefreshTokenInvalid
	}
	return stored.UserID, nil
}

// RevokeRefreshToken marks a refresh token as revoked
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	result := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ? AND revoked_at IS NULL", hashToken(refreshToken)).
		Update("revoked_at", time.Now())
	if result.Error != nil {
		return fmt.Errorf("failed to revoke token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRefreshTokenInvalid
	}
	return nil
}

// RevokeAllUserTokens revokes every outstanding refresh token of a user
func (s *Service) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	err := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *Service) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// CleanupExpiredTokens deletes refresh tokens past their expiry and returns how many went
func (s *Service) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup expired tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// issueTokens signs an access token and persists the hash of a fresh refresh token
func (s *Service) issueTokens(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	accessToken, err := GenerateAccessToken(user, s.jwtConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	stored := &models.RefreshToken{
		UserID:    user.ID,
		Token:     hashToken(refreshToken),
		ExpiresAt: time.Now().Add(s.jwtConfig.RefreshTokenDuration),
	}
	if err := s.db.WithContext(ctx).Create(stored).Error; err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.jwtConfig.AccessTokenDuration.Seconds()),
		User:         UserInfoFrom(user),
	}, nil
}

// UserInfoFrom returns the public view of a user
func UserInfoFrom(user *models.User) *models.UserInfo {
	return &models.UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}
}

// hashToken returns the hex SHA-256 of a refresh token; only hashes are stored
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
