package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/models"
	"github.com/uiforge/uiforge-engine/pkg/repositories"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
)

// ServiceConfig holds the policy switches for the auth service.
type ServiceConfig struct {
	// RequireEmailConfirmation rejects sign-ins from password accounts
	// that have not confirmed their email address.
	RequireEmailConfirmation bool
	// DisableSignups rejects new password registrations.
	DisableSignups bool
}

// AuthService defines the interface for authentication operations.
// This abstraction enables clean separation between HTTP handling
// and authentication logic, making both easier to test.
type AuthService interface {
	// Signup registers a new password-based account.
	// Known failures are returned as *AuthError.
	Signup(ctx context.Context, input SignupInput) (*models.User, error)

	// Login verifies email and password credentials.
	// Known failures are returned as *AuthError.
	Login(ctx context.Context, input LoginInput) (*models.User, error)

	// ValidateRequest extracts and validates a session JWT from the request.
	// It checks for the token in:
	//   1. Cookie named "uiforge_session" (browser clients)
	//   2. Authorization header with "Bearer" scheme (API clients)
	// Returns the validated claims, the raw token string, or an error.
	ValidateRequest(r *http.Request) (*Claims, string, error)
}

// authService implements AuthService.
type authService struct {
	users  repositories.UserRepository
	tokens *TokenManager
	config ServiceConfig
	logger *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repositories.UserRepository, tokens *TokenManager, config ServiceConfig, logger *zap.Logger) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		config: config,
		logger: logger,
	}
}

// Signup registers a new password-based account.
func (s *authService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	if s.config.DisableSignups {
		return nil, NewAuthError(CodeSignupDisabled)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		FullName:       strings.TrimSpace(input.Name),
		PasswordHash:   string(hash),
		Provider:       models.ProviderPassword,
		EmailConfirmed: !s.config.RequireEmailConfirmation,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, NewAuthError(CodeUserAlreadyExists)
		}
		return nil, err
	}

	s.logger.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("provider", user.Provider))
	return user, nil
}

// Login verifies email and password credentials.
func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, NewAuthError(CodeInvalidCredentials)
		}
		return nil, err
	}

	// OAuth accounts have no password hash; a password login against
	// them fails the same way as a wrong password.
	if user.PasswordHash == "" {
		return nil, NewAuthError(CodeInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, NewAuthError(CodeInvalidCredentials)
	}

	if s.config.RequireEmailConfirmation && !user.EmailConfirmed {
		return nil, NewAuthError(CodeEmailNotConfirmed)
	}

	return user, nil
}

// ValidateRequest extracts and validates a session JWT from the request.
func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	var tokenString string
	var tokenSource string

	// Try cookie first (browser clients)
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		tokenString = cookie.Value
		tokenSource = "cookie"
	} else {
		// Fallback to Authorization header (API clients)
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.logger.Debug("No session token found in request",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method))
			return nil, "", ErrMissingAuthorization
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.logger.Debug("Invalid Authorization header format",
				zap.String("path", r.URL.Path))
			return nil, "", ErrInvalidAuthFormat
		}
		tokenString = parts[1]
		tokenSource = "header"
	}

	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		s.logger.Debug("Session token validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("token_source", tokenSource))
		return nil, "", err
	}

	return claims, tokenString, nil
}

// Ensure authService implements AuthService at compile time.
var _ AuthService = (*authService)(nil)
