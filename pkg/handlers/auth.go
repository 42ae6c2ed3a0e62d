package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/uiforge/uiforge-engine/pkg/auth"
	"github.com/uiforge/uiforge-engine/pkg/models"
	"github.com/uiforge/uiforge-engine/pkg/repositories"
	"github.com/uiforge/uiforge-engine/pkg/services/workspace"
)

// SignupRequest for POST /auth/signup
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned after a successful signup or login.
type SessionResponse struct {
	User  *UserResponse `json:"user"`
	Token string        `json:"token"`
}

// UserResponse is the public shape of an account.
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Provider string `json:"provider"`
}

// AuthHandler handles signup, login, sign-out, and the OAuth flow.
type AuthHandler struct {
	authService auth.AuthService
	tokens      *auth.TokenManager
	oauth       *auth.OAuthManager
	users       repositories.UserRepository
	limiter     *auth.RateLimiter
	cookies     auth.CookieSettings
	sessionTTL  time.Duration
	workspaces  *workspace.Manager
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(
	authService auth.AuthService,
	tokens *auth.TokenManager,
	oauth *auth.OAuthManager,
	users repositories.UserRepository,
	limiter *auth.RateLimiter,
	cookies auth.CookieSettings,
	sessionTTL time.Duration,
	workspaces *workspace.Manager,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		oauth:       oauth,
		users:       users,
		limiter:     limiter,
		cookies:     cookies,
		sessionTTL:  sessionTTL,
		workspaces:  workspaces,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/signup", h.Signup)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/signout", h.Signout)
	mux.HandleFunc("GET /auth/oauth/{provider}", h.OAuthStart)
	mux.HandleFunc("GET /auth/callback", h.OAuthCallback)
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(r) {
		h.writeAuthError(w, http.StatusTooManyRequests, auth.NewAuthError(auth.CodeRateLimited))
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeAuthError(w, http.StatusBadRequest, auth.NewAuthError(auth.CodeParseError))
		return
	}

	input, authErr := auth.ValidateSignupInput(req.Name, req.Email, req.Password)
	if authErr != nil {
		h.writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}

	user, err := h.authService.Signup(r.Context(), *input)
	if err != nil {
		h.handleAuthServiceError(w, err, "Signup failed")
		return
	}

	h.issueSession(w, user, http.StatusCreated)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(r) {
		h.writeAuthError(w, http.StatusTooManyRequests, auth.NewAuthError(auth.CodeRateLimited))
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeAuthError(w, http.StatusBadRequest, auth.NewAuthError(auth.CodeParseError))
		return
	}

	input, authErr := auth.ValidateLoginInput(req.Email, req.Password)
	if authErr != nil {
		h.writeAuthError(w, http.StatusBadRequest, authErr)
		return
	}

	user, err := h.authService.Login(r.Context(), *input)
	if err != nil {
		h.handleAuthServiceError(w, err, "Login failed")
		return
	}

	h.issueSession(w, user, http.StatusOK)
}

// Signout handles POST /auth/signout
// Clears the session cookie, drops the in-memory workspace session, and
// redirects to the logout page.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	if claims, _, err := h.authService.ValidateRequest(r); err == nil {
		if userID, err := auth.UserIDFromClaims(claims); err == nil {
			h.workspaces.EndSession(userID)
		}
	}

	http.SetCookie(w, h.cookies.ClearedSessionCookie())
	http.Redirect(w, r, "/logout", http.StatusSeeOther)
}

// OAuthStart handles GET /auth/oauth/{provider}
// Stores a state nonce in the OAuth session cookie and redirects to the
// provider's consent page.
func (h *AuthHandler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	if !h.oauth.SupportsProvider(provider) {
		if err := ErrorResponse(w, http.StatusNotFound, "unknown_provider", "Unknown OAuth provider"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	state, err := auth.NewState()
	if err != nil {
		h.logger.Error("Failed to generate OAuth state", zap.Error(err))
		h.internalError(w)
		return
	}

	session, err := auth.GetSession(r)
	if err != nil {
		// A stale or tampered cookie decodes to an error; start clean.
		h.logger.Debug("Recreating OAuth session", zap.Error(err))
	}
	session.Values[auth.SessionKeyState] = state
	session.Values[auth.SessionKeyProvider] = provider
	if err := auth.SaveSession(r, w, session); err != nil {
		h.logger.Error("Failed to save OAuth session", zap.Error(err))
		h.internalError(w)
		return
	}

	url, err := h.oauth.AuthCodeURL(provider, state)
	if err != nil {
		h.logger.Error("Failed to build authorization URL", zap.Error(err))
		h.internalError(w)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// OAuthCallback handles GET /auth/callback
// Validates the state nonce, exchanges the code, upserts the user, and
// issues the session cookie.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	session, err := auth.GetSession(r)
	if err != nil {
		h.forbiddenState(w)
		return
	}

	state, _ := session.Values[auth.SessionKeyState].(string)
	provider, _ := session.Values[auth.SessionKeyProvider].(string)
	if state == "" || provider == "" || r.URL.Query().Get("state") != state {
		h.forbiddenState(w)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_code", "Missing authorization code"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	profile, err := h.oauth.Exchange(r.Context(), provider, code)
	if err != nil {
		h.logger.Error("OAuth exchange failed",
			zap.String("provider", provider),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadGateway, "oauth_exchange_failed", "Could not complete sign-in with the provider"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user, err := h.users.UpsertOAuth(r.Context(), &models.User{
		Email:    profile.Email,
		FullName: profile.FullName,
		Provider: profile.Provider,
	})
	if err != nil {
		h.logger.Error("Failed to upsert OAuth user", zap.Error(err))
		h.internalError(w)
		return
	}

	auth.ClearSessionValues(session)
	if err := auth.SaveSession(r, w, session); err != nil {
		h.logger.Warn("Failed to clear OAuth session", zap.Error(err))
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("Failed to issue session token", zap.Error(err))
		h.internalError(w)
		return
	}

	http.SetCookie(w, h.cookies.SessionCookie(token, h.sessionTTL))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// issueSession mints the session token, sets the cookie, and writes the
// session response.
func (h *AuthHandler) issueSession(w http.ResponseWriter, user *models.User, status int) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("Failed to issue session token", zap.Error(err))
		h.internalError(w)
		return
	}

	http.SetCookie(w, h.cookies.SessionCookie(token, h.sessionTTL))

	response := SessionResponse{
		User: &UserResponse{
			ID:       user.ID.String(),
			Email:    user.Email,
			FullName: user.FullName,
			Provider: user.Provider,
		},
		Token: token,
	}
	if err := WriteJSON(w, status, response); err != nil {
		h.logger.Error("Failed to write session response", zap.Error(err))
	}
}

// handleAuthServiceError maps service failures to HTTP responses. Known
// auth codes get their enumerated message; everything else is a 500.
func (h *AuthHandler) handleAuthServiceError(w http.ResponseWriter, err error, logMsg string) {
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		status := http.StatusUnauthorized
		switch authErr.Code {
		case auth.CodeUserAlreadyExists:
			status = http.StatusConflict
		case auth.CodeSignupDisabled:
			status = http.StatusForbidden
		case auth.CodeEmailNotConfirmed:
			status = http.StatusForbidden
		}
		h.writeAuthError(w, status, authErr)
		return
	}

	h.logger.Error(logMsg, zap.Error(err))
	h.internalError(w)
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, status int, authErr *auth.AuthError) {
	if err := ErrorResponse(w, status, authErr.Code, auth.MessageForCode(authErr.Code)); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *AuthHandler) forbiddenState(w http.ResponseWriter) {
	if err := ErrorResponse(w, http.StatusForbidden, "invalid_oauth_state", "OAuth state mismatch"); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *AuthHandler) internalError(w http.ResponseWriter) {
	if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Something went wrong"); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
