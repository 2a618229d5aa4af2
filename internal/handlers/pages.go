package handlers

import (
	"errors"
	"net/http"

	"todo-web/internal/auth"
	"todo-web/internal/logging"
	"todo-web/internal/middleware"
	"todo-web/internal/models"
	"todo-web/internal/todo"

	"github.com/gin-gonic/gin"
)

// TodoPath is the list view browsers land on after signing in
const TodoPath = "/todo"

// PageHandler serves the sign-in screen and its form posts
type PageHandler struct {
	authService *auth.Service
	sessions    *auth.SessionManager
	registry    *todo.Registry
}

// NewPageHandler creates a new page handler
func NewPageHandler(authService *auth.Service, sessions *auth.SessionManager, registry *todo.Registry) *PageHandler {
	return &PageHandler{
		authService: authService,
		sessions:    sessions,
		registry:    registry,
	}
}

type signInPage struct {
	Title string
	Error string
	Email string
}

// SignIn renders the sign-in screen, or sends signed-in users to the list view
func (h *PageHandler) SignIn(c *gin.Context) {
	if middleware.IsAuthenticated(c) {
		c.Redirect(http.StatusSeeOther, TodoPath)
		return
	}
	h.renderSignIn(c, http.StatusOK, "", "")
}

// SignInSubmit checks the submitted credentials and starts a session
func (h *PageHandler) SignInSubmit(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderSignIn(c, http.StatusBadRequest, "Enter your email and password.", req.Email)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.renderSignIn(c, http.StatusUnauthorized, "Invalid email or password.", req.Email)
		case errors.Is(err, auth.ErrUserInactive):
			h.renderSignIn(c, http.StatusForbidden, "This account is inactive.", req.Email)
		default:
			logging.Logger.WithError(err).Error("Sign-in failed")
			h.renderSignIn(c, http.StatusInternalServerError, "Sign-in failed. Please try again.", req.Email)
		}
		return
	}

	h.startSession(c, resp)
}

// Register creates an account from the registration form and signs it in
func (h *PageHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderSignIn(c, http.StatusBadRequest, "Enter a valid email and a password of at least 8 characters.", "")
		return
	}

	if err := auth.ValidatePasswordRequirements(req.Password); err != nil {
		h.renderSignIn(c, http.StatusBadRequest, "Password does not meet the requirements.", "")
		return
	}

	if _, err := h.authService.Register(c.Request.Context(), &req); err != nil {
		if errors.Is(err, auth.ErrUserAlreadyExists) {
			h.renderSignIn(c, http.StatusConflict, "An account with this email already exists.", req.Email)
			return
		}
		logging.Logger.WithError(err).Error("Registration failed")
		h.renderSignIn(c, http.StatusInternalServerError, "Registration failed. Please try again.", "")
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &models.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// The account exists; let the user sign in by hand
		logging.Logger.WithError(err).Warn("Login after registration failed")
		h.renderSignIn(c, http.StatusOK, "Account created. Please sign in.", req.Email)
		return
	}

	h.startSession(c, resp)
}

// SignOut revokes the session's refresh token, drops the user's list state and clears the cookie.
// With an expired access token the user is resolved from the refresh token.
func (h *PageHandler) SignOut(c *gin.Context) {
	ctx := c.Request.Context()
	userID, userErr := middleware.GetUserID(c)

	tokens := h.sessions.Tokens(c.Request)
	if tokens.RefreshToken != "" {
		if userErr != nil {
			userID, userErr = h.authService.RefreshTokenOwner(ctx, tokens.RefreshToken)
			if userErr != nil && !errors.Is(userErr, auth.ErrRefreshTokenInvalid) {
				logging.Logger.WithError(userErr).Error("Failed to resolve refresh token on sign-out")
			}
		}

		err := h.authService.RevokeRefreshToken(ctx, tokens.RefreshToken)
		if err != nil && !errors.Is(err, auth.ErrRefreshTokenInvalid) {
			logging.Logger.WithError(err).Error("Failed to revoke refresh token on sign-out")
		}
	}

	if userErr == nil {
		h.registry.Forget(userID)
	}

	if err := h.sessions.Clear(c.Writer, c.Request); err != nil {
		logging.Logger.WithError(err).Error("Failed to clear session")
	}
	c.Redirect(http.StatusSeeOther, middleware.SignInPath)
}

func (h *PageHandler) startSession(c *gin.Context, resp *models.AuthResponse) {
	if err := h.sessions.Save(c.Writer, c.Request, resp); err != nil {
		logging.Logger.WithError(err).Error("Failed to store session")
		h.renderSignIn(c, http.StatusInternalServerError, "Sign-in failed. Please try again.", "")
		return
	}
	c.Redirect(http.StatusSeeOther, TodoPath)
}

func (h *PageHandler) renderSignIn(c *gin.Context, status int, message, email string) {
	c.HTML(status, "signin.html", signInPage{
		Title: "Sign in",
		Error: message,
		Email: email,
	})
}
