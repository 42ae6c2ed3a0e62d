package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/uiforge/uiforge-engine/pkg/models"
)

// Profile is the identity resolved from an OAuth provider after the
// authorization code exchange.
type Profile struct {
	Email    string
	FullName string
	Provider string
}

// OAuthProviderConfig holds the client credentials for one provider.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
}

// OAuthManager drives the authorization-code flow for the supported
// providers (Google and GitHub).
type OAuthManager struct {
	google         *oauth2.Config
	githubConf     *oauth2.Config
	googleVerifier IDTokenVerifier

	// httpClient is used for provider profile API calls. Overridable in tests.
	httpClient *http.Client
}

// NewOAuthManager builds an OAuthManager. Providers with empty client IDs
// are left unconfigured and rejected by AuthCodeURL/Exchange.
func NewOAuthManager(baseURL string, googleCfg, githubCfg OAuthProviderConfig, googleVerifier IDTokenVerifier) *OAuthManager {
	m := &OAuthManager{
		googleVerifier: googleVerifier,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}

	if googleCfg.ClientID != "" {
		m.google = &oauth2.Config{
			ClientID:     googleCfg.ClientID,
			ClientSecret: googleCfg.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  baseURL + "/auth/callback",
			Scopes:       []string{"openid", "email", "profile"},
		}
	}

	if githubCfg.ClientID != "" {
		m.githubConf = &oauth2.Config{
			ClientID:     githubCfg.ClientID,
			ClientSecret: githubCfg.ClientSecret,
			Endpoint:     github.Endpoint,
			RedirectURL:  baseURL + "/auth/callback",
			Scopes:       []string{"read:user", "user:email"},
		}
	}

	return m
}

// SupportsProvider reports whether the named provider is configured.
func (m *OAuthManager) SupportsProvider(provider string) bool {
	return m.configFor(provider) != nil
}

func (m *OAuthManager) configFor(provider string) *oauth2.Config {
	switch provider {
	case models.ProviderGoogle:
		return m.google
	case models.ProviderGithub:
		return m.githubConf
	default:
		return nil
	}
}

// NewState generates a random state nonce for CSRF protection.
func NewState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// AuthCodeURL returns the provider authorization URL carrying the state.
func (m *OAuthManager) AuthCodeURL(provider, state string) (string, error) {
	conf := m.configFor(provider)
	if conf == nil {
		return "", fmt.Errorf("oauth provider not configured: %s", provider)
	}
	return conf.AuthCodeURL(state), nil
}

// Exchange trades the authorization code for a token and resolves the
// user's profile from the provider.
func (m *OAuthManager) Exchange(ctx context.Context, provider, code string) (*Profile, error) {
	conf := m.configFor(provider)
	if conf == nil {
		return nil, fmt.Errorf("oauth provider not configured: %s", provider)
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth code exchange failed: %w", err)
	}

	switch provider {
	case models.ProviderGoogle:
		return m.googleProfile(token)
	case models.ProviderGithub:
		return m.githubProfile(ctx, conf, token)
	default:
		return nil, fmt.Errorf("oauth provider not configured: %s", provider)
	}
}

// googleProfile reads the identity from the ID token Google returns
// alongside the access token. No extra API round trip is needed.
func (m *OAuthManager) googleProfile(token *oauth2.Token) (*Profile, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google token response missing id_token")
	}

	claims, err := m.googleVerifier.VerifyIDToken(rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify google id token: %w", err)
	}
	if claims.Email == "" {
		return nil, errors.New("google id token missing email claim")
	}

	return &Profile{
		Email:    claims.Email,
		FullName: claims.Name,
		Provider: models.ProviderGoogle,
	}, nil
}

// githubProfile resolves the identity from the GitHub REST API.
// The /user email can be null for users with a private email, so the
// primary address is fetched from /user/emails when needed.
func (m *OAuthManager) githubProfile(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*Profile, error) {
	client := conf.Client(ctx, token)
	client.Timeout = m.httpClient.Timeout

	var user struct {
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := m.getJSON(ctx, client, "https://api.github.com/user", &user); err != nil {
		return nil, fmt.Errorf("failed to fetch github profile: %w", err)
	}

	email := user.Email
	if email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := m.getJSON(ctx, client, "https://api.github.com/user/emails", &emails); err != nil {
			return nil, fmt.Errorf("failed to fetch github emails: %w", err)
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}
	if email == "" {
		return nil, errors.New("github account has no verified primary email")
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &Profile{
		Email:    email,
		FullName: name,
		Provider: models.ProviderGithub,
	}, nil
}

func (m *OAuthManager) getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
