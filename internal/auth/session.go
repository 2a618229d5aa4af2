package auth

import (
	"fmt"
	"net/http"

	"todo-web/internal/config"
	"todo-web/internal/models"

	"github.com/gorilla/sessions"
)

const (
	sessionAccessKey  = "access_token"
	sessionRefreshKey = "refresh_token"
)

// SessionConfig holds browser session cookie configuration
type SessionConfig struct {
	Secret string // Key authenticating the cookie contents
	Name   string // Cookie name
	MaxAge int    // Cookie lifetime in seconds
	Secure bool   // Send the cookie over HTTPS only
}

// NewSessionConfigFromEnv creates a SessionConfig from environment variables
func NewSessionConfigFromEnv() *SessionConfig {
	return &SessionConfig{
		Secret: config.GetEnv("SESSION_SECRET", DevelopmentSecret),
		Name:   config.GetEnv("SESSION_NAME", "todo_session"),
		MaxAge: config.GetEnvInt("SESSION_MAX_AGE_SECONDS", 7*24*60*60),
		Secure: config.GetEnvBool("SESSION_SECURE", false),
	}
}

// SessionTokens is the token pair carried by a browser session
type SessionTokens struct {
	AccessToken  string
	RefreshToken string
}

// SessionManager keeps the signed-in user's tokens in a signed cookie
type SessionManager struct {
	store sessions.Store
	name  string
}

// NewSessionManager creates a cookie backed SessionManager
func NewSessionManager(cfg *SessionConfig) *SessionManager {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, name: cfg.Name}
}

// Tokens returns the tokens stored in the request's session.
// A missing or tampered cookie yields empty tokens.
func (m *SessionManager) Tokens(r *http.Request) SessionTokens {
	session, err := m.store.Get(r, m.name)
	if err != nil {
		return SessionTokens{}
	}

	access, _ := session.Values[sessionAccessKey].(string)
	refresh, _ := session.Values[sessionRefreshKey].(string)
	return SessionTokens{AccessToken: access, RefreshToken: refresh}
}

// Save writes the token pair of an auth response into the session cookie
func (m *SessionManager) Save(w http.ResponseWriter, r *http.Request, resp *models.AuthResponse) error {
	// A stale or foreign cookie is replaced rather than rejected
	session, _ := m.store.Get(r, m.name)
	session.Values[sessionAccessKey] = resp.AccessToken
	session.Values[sessionRefreshKey] = resp.RefreshToken

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear expires the session cookie
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, m.name)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
