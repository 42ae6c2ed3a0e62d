package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uiforge/uiforge-engine/pkg/auth"
	"github.com/uiforge/uiforge-engine/pkg/models"
	"github.com/uiforge/uiforge-engine/pkg/services/workspace"
)

// mockAuthService is a hand-rolled mock for auth.AuthService.
type mockAuthService struct {
	SignupFunc          func(ctx context.Context, input auth.SignupInput) (*models.User, error)
	LoginFunc           func(ctx context.Context, input auth.LoginInput) (*models.User, error)
	ValidateRequestFunc func(r *http.Request) (*auth.Claims, string, error)
}

func (m *mockAuthService) Signup(ctx context.Context, input auth.SignupInput) (*models.User, error) {
	return m.SignupFunc(ctx, input)
}

func (m *mockAuthService) Login(ctx context.Context, input auth.LoginInput) (*models.User, error) {
	return m.LoginFunc(ctx, input)
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	return m.ValidateRequestFunc(r)
}

func newAuthHandler(svc auth.AuthService, limiter *auth.RateLimiter) *AuthHandler {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	workspaces := workspace.NewManager(nil, nil, nil, nil, nil, nil, zap.NewNop())
	return NewAuthHandler(svc, tokens, nil, nil, limiter, auth.CookieSettings{}, time.Hour, workspaces, zap.NewNop())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func TestSignupHandlerSuccess(t *testing.T) {
	user := &models.User{
		ID:       uuid.New(),
		Email:    "ada@example.com",
		FullName: "Ada Lovelace",
		Provider: models.ProviderPassword,
	}
	svc := &mockAuthService{
		SignupFunc: func(ctx context.Context, input auth.SignupInput) (*models.User, error) {
			if input.Email != "ada@example.com" {
				t.Errorf("expected validated email, got %s", input.Email)
			}
			return user, nil
		},
	}
	h := newAuthHandler(svc, nil)

	body := `{"name":"Ada Lovelace","email":"ada@example.com","password":"longenough"}`
	r := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Signup(rec, r)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.User.ID != user.ID.String() {
		t.Errorf("expected user ID %s, got %s", user.ID, resp.User.ID)
	}
	if resp.Token == "" {
		t.Error("expected a session token in the response")
	}

	cookies := rec.Result().Cookies()
	var sessionCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == auth.SessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected a session cookie to be set")
	}
	if sessionCookie.Value != resp.Token {
		t.Error("expected the cookie to carry the same token as the body")
	}
}

func TestSignupHandlerRejectsInvalidInput(t *testing.T) {
	h := newAuthHandler(&mockAuthService{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"short password", `{"name":"Ada","email":"ada@example.com","password":"short"}`},
		{"bad email", `{"name":"Ada","email":"nope","password":"longenough"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Signup(rec, r)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if body := decodeError(t, rec); body["error"] != auth.CodeParseError {
				t.Errorf("expected parse_error, got %s", body["error"])
			}
		})
	}
}

func TestSignupHandlerConflict(t *testing.T) {
	svc := &mockAuthService{
		SignupFunc: func(ctx context.Context, input auth.SignupInput) (*models.User, error) {
			return nil, auth.NewAuthError(auth.CodeUserAlreadyExists)
		},
	}
	h := newAuthHandler(svc, nil)

	body := `{"name":"Ada","email":"ada@example.com","password":"longenough"}`
	r := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Signup(rec, r)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body["error"] != auth.CodeUserAlreadyExists {
		t.Errorf("expected user_already_exists, got %s", body["error"])
	}
}

func TestLoginHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		wantStatus int
	}{
		{"invalid credentials", auth.CodeInvalidCredentials, http.StatusUnauthorized},
		{"email not confirmed", auth.CodeEmailNotConfirmed, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				LoginFunc: func(ctx context.Context, input auth.LoginInput) (*models.User, error) {
					return nil, auth.NewAuthError(tt.code)
				},
			}
			h := newAuthHandler(svc, nil)

			body := `{"email":"ada@example.com","password":"longenough"}`
			r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
			rec := httptest.NewRecorder()
			h.Login(rec, r)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if body := decodeError(t, rec); body["error"] != tt.code {
				t.Errorf("expected %s, got %s", tt.code, body["error"])
			}
		})
	}
}

func TestLoginHandlerRateLimited(t *testing.T) {
	svc := &mockAuthService{
		LoginFunc: func(ctx context.Context, input auth.LoginInput) (*models.User, error) {
			return nil, auth.NewAuthError(auth.CodeInvalidCredentials)
		},
	}
	h := newAuthHandler(svc, auth.NewRateLimiter(1))

	body := `{"email":"ada@example.com","password":"longenough"}`
	first := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	first.RemoteAddr = "10.0.0.1:4000"
	h.Login(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	second.RemoteAddr = "10.0.0.1:4000"
	rec := httptest.NewRecorder()
	h.Login(rec, second)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body["error"] != auth.CodeRateLimited {
		t.Errorf("expected over_request_rate_limit, got %s", body["error"])
	}
}

func TestSignoutClearsCookieAndRedirects(t *testing.T) {
	userID := uuid.New()
	svc := &mockAuthService{
		ValidateRequestFunc: func(r *http.Request) (*auth.Claims, string, error) {
			claims := &auth.Claims{}
			claims.Subject = userID.String()
			return claims, "token", nil
		},
	}
	h := newAuthHandler(svc, nil)

	r := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	rec := httptest.NewRecorder()
	h.Signout(rec, r)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/logout" {
		t.Errorf("expected redirect to /logout, got %s", loc)
	}

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			cleared = c
		}
	}
	if cleared == nil {
		t.Fatal("expected a session cookie to be set")
	}
	if cleared.MaxAge != -1 || cleared.Value != "" {
		t.Error("expected the session cookie to be cleared")
	}
}
