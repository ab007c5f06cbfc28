// Package idp verifies identity-provider ID tokens (LINE-style OIDC) against
// a cached JWKS. It fails closed: any signature, issuer, audience, or expiry
// problem yields the same generic error.
package idp

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnverified is the only error surfaced to callers; which check failed is
// deliberately not revealed.
var ErrUnverified = errors.New("identity token verification failed")

// DevMockToken is accepted instead of a signed token when dev auth is on.
const DevMockToken = "dev-mock-token"

// Claims are the verified subject plus optional display attributes.
type Claims struct {
	Subject string
	Name    string
	Picture string
}

type idTokenClaims struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	provider KeyProvider
	issuer   string
	audience string
	devAuth  bool
}

func NewVerifier(provider KeyProvider, issuer, audience string) *Verifier {
	return &Verifier{provider: provider, issuer: issuer, audience: audience}
}

// EnableDevAuth turns on the fixed mock-token bypass. Never on in production.
func (v *Verifier) EnableDevAuth() { v.devAuth = true }

func (v *Verifier) Verify(ctx context.Context, raw string) (Claims, error) {
	if v.devAuth && raw == DevMockToken {
		return Claims{Subject: "test-user", Name: "Tester"}, nil
	}

	var claims idTokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.provider.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrUnverified
	}
	if claims.Subject == "" {
		return Claims{}, ErrUnverified
	}
	return Claims{
		Subject: claims.Subject,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
