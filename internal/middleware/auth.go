package middleware

import (
	"context"
	"errors"
	"net/http"

	"todo-web/internal/auth"
	"todo-web/internal/logging"
	"todo-web/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextKeyUserID      = "user_id"
	ContextKeyUserEmail   = "user_email"
	ContextKeyDisplayName = "user_display_name"
	ContextKeyUserRole    = "user_role"
)

// SignInPath is where unauthenticated browsers are sent
const SignInPath = "/"

// TokenRefresher exchanges a refresh token for a new token pair
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
}

// APIAuth validates the bearer access token of JSON API requests
func APIAuth(jwtConfig *auth.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			code := "INVALID_TOKEN"
			if errors.Is(err, auth.ErrMissingToken) {
				code = "UNAUTHORIZED"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    code,
				Message: err.Error(),
			})
			return
		}

		claims, err := auth.ValidateAccessToken(tokenString, jwtConfig)
		if errors.Is(err, auth.ErrExpiredToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    "TOKEN_EXPIRED",
				Message: "Access token has expired. Please refresh your token.",
			})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: "Invalid access token",
			})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// AuthCheck guards browser pages. A valid session access token passes; an
// invalid or expired one is renewed with the session refresh token; anything
// else is redirected to the sign-in screen.
func AuthCheck(sessions *auth.SessionManager, jwtConfig *auth.JWTConfig, refresher TokenRefresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokens := sessions.Tokens(c.Request)

		if tokens.AccessToken != "" {
			if claims, err := auth.ValidateAccessToken(tokens.AccessToken, jwtConfig); err == nil {
				setClaims(c, claims)
				c.Next()
				return
			}
		}

		if tokens.RefreshToken == "" {
			redirectToSignIn(c)
			return
		}

		resp, err := refresher.RefreshAccessToken(c.Request.Context(), tokens.RefreshToken)
		if err != nil {
			logging.Logger.WithFields(map[string]interface{}{
				"client_ip": c.ClientIP(),
				"path":      c.Request.URL.Path,
				"error":     err.Error(),
			}).Info("Session refresh failed")
			_ = sessions.Clear(c.Writer, c.Request)
			redirectToSignIn(c)
			return
		}

		claims, err := auth.ValidateAccessToken(resp.AccessToken, jwtConfig)
		if err != nil {
			redirectToSignIn(c)
			return
		}
		if err := sessions.Save(c.Writer, c.Request, resp); err != nil {
			logging.Logger.WithError(err).Error("Failed to store refreshed session")
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalSessionAuth records the session user when the access token is valid, without requiring it
func OptionalSessionAuth(sessions *auth.SessionManager, jwtConfig *auth.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessions.Tokens(c.Request).AccessToken; token != "" {
			if claims, err := auth.ValidateAccessToken(token, jwtConfig); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeyUserEmail, claims.Email)
	c.Set(ContextKeyDisplayName, claims.DisplayName)
	c.Set(ContextKeyUserRole, claims.Role)
}

func redirectToSignIn(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, SignInPath)
	c.Abort()
}

// GetUserID retrieves the user ID from the Gin context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil, errors.New("user ID not found in context")
	}

	id, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("invalid user ID type in context")
	}
	return id, nil
}

// GetUserEmail retrieves the user email from the Gin context
func GetUserEmail(c *gin.Context) string {
	return c.GetString(ContextKeyUserEmail)
}

// GetDisplayName returns the display name, falling back to the email
func GetDisplayName(c *gin.Context) string {
	if name := c.GetString(ContextKeyDisplayName); name != "" {
		return name
	}
	return GetUserEmail(c)
}

// IsAuthenticated checks if the current request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ContextKeyUserID)
	return exists
}
