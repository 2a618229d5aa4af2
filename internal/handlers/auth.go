package handlers

import (
	"errors"
	"net/http"

	"todo-web/internal/auth"
	"todo-web/internal/logging"
	"todo-web/internal/middleware"
	"todo-web/internal/models"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves the JSON identity API used by scripted clients
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	if err := auth.ValidatePasswordRequirements(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "INVALID_PASSWORD",
			Message: err.Error(),
		})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, auth.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Code:    "USER_EXISTS",
				Message: "A user with this email already exists",
			})
			return
		}

		logging.Logger.WithError(err).Error("Registration failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    "REGISTRATION_FAILED",
			Message: "Failed to register user",
		})
		return
	}

	// Auto-login after registration
	authResponse, err := h.authService.Login(c.Request.Context(), &models.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// Registration succeeded but login failed - still return success
		c.JSON(http.StatusCreated, auth.UserInfoFrom(user))
		return
	}

	c.JSON(http.StatusCreated, authResponse)
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    "INVALID_CREDENTIALS",
				Message: "Invalid email or password",
			})
			return
		}

		if errors.Is(err, auth.ErrUserInactive) {
			userInactive(c)
			return
		}

		logging.Logger.WithError(err).Error("Login failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    "LOGIN_FAILED",
			Message: "Failed to login",
		})
		return
	}

	c.JSON(http.StatusOK, authResponse)
}

// RefreshToken exchanges a refresh token for a new token pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	authResponse, err := h.authService.RefreshAccessToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenInvalid) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    "INVALID_REFRESH_TOKEN",
				Message: "Refresh token is invalid or expired",
			})
			return
		}

		if errors.Is(err, auth.ErrUserInactive) {
			userInactive(c)
			return
		}

		logging.Logger.WithError(err).Error("Token refresh failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    "REFRESH_FAILED",
			Message: "Failed to refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, authResponse)
}

// Logout revokes a refresh token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	err := h.authService.RevokeRefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenInvalid) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    "INVALID_REFRESH_TOKEN",
				Message: "Refresh token is invalid",
			})
			return
		}

		logging.Logger.WithError(err).Error("Logout failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    "LOGOUT_FAILED",
			Message: "Failed to logout",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetProfile returns the current user's profile
// GET /api/v1/auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "User not authenticated",
		})
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    "USER_NOT_FOUND",
				Message: "User not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    "PROFILE_FETCH_FAILED",
			Message: "Failed to fetch profile",
		})
		return
	}

	c.JSON(http.StatusOK, auth.UserInfoFrom(user))
}

func invalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Code:    "INVALID_REQUEST",
		Message: "Invalid request payload",
		Details: map[string]interface{}{"error": err.Error()},
	})
}

func userInactive(c *gin.Context) {
	c.JSON(http.StatusForbidden, models.ErrorResponse{
		Code:    "USER_INACTIVE",
		Message: "User account is inactive",
	})
}
