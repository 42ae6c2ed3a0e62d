package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// GoogleIssuer is the issuer claim Google sets on ID tokens.
const GoogleIssuer = "https://accounts.google.com"

// googleJWKSURL is Google's published JSON Web Key Set endpoint.
const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// IDTokenClaims are the OpenID Connect claims we read from a provider
// ID token during the OAuth callback.
type IDTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// IDTokenVerifier validates provider-issued ID tokens.
// This abstraction enables testing with mock implementations.
type IDTokenVerifier interface {
	// VerifyIDToken validates an ID token string and returns its claims.
	// Returns an error if the token is invalid, expired, or was not
	// issued for the configured client.
	VerifyIDToken(tokenString string) (*IDTokenClaims, error)
}

// GoogleIDTokenVerifier verifies Google ID tokens using Google's JWKS
// endpoint. Public keys are fetched and refreshed by keyfunc.
type GoogleIDTokenVerifier struct {
	jwks     keyfunc.Keyfunc
	clientID string
}

// NewGoogleIDTokenVerifier creates a verifier bound to the given OAuth
// client ID. It fetches Google's JWKS eagerly so misconfiguration
// surfaces at startup.
func NewGoogleIDTokenVerifier(ctx context.Context, clientID string) (*GoogleIDTokenVerifier, error) {
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{googleJWKSURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client for google: %w", err)
	}

	return &GoogleIDTokenVerifier{jwks: jwks, clientID: clientID}, nil
}

// VerifyIDToken validates a Google ID token and returns its claims.
// The RSA signature is verified against Google's JWKS public keys, and
// the issuer and audience must match Google and our client ID.
func (v *GoogleIDTokenVerifier) VerifyIDToken(tokenString string) (*IDTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IDTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.jwks.KeyfuncCtx(context.Background())(token)
	}, jwt.WithIssuer(GoogleIssuer), jwt.WithAudience(v.clientID), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*IDTokenClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	return claims, nil
}

// Ensure GoogleIDTokenVerifier implements IDTokenVerifier at compile time.
var _ IDTokenVerifier = (*GoogleIDTokenVerifier)(nil)
