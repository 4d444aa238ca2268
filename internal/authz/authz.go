// Package authz verifies identity tokens issued by the user pool and extracts
// the subject they carry.
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kylejryan/claims-intake-backend/internal/apperr"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned when a token cannot be trusted.
var ErrUnauthorized = errors.New("unauthorized")

const tokenUseID = "id"

// idClaims is the subset of a Cognito ID token the backend reads.
type idClaims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use"`
	Email    string `json:"email"`
}

// Verifier checks the signature and registered claims of ID tokens.
type Verifier struct {
	keyfunc   jwt.Keyfunc
	issuer    string
	audience  string
	devBypass bool
	now       func() time.Time
}

// NewVerifier builds a Verifier around keyfunc. With devBypass set, tokens are
// parsed without signature or claim validation; this exists for LocalStack
// pools that do not publish keys and must never be enabled in production.
func NewVerifier(kf jwt.Keyfunc, issuer, audience string, devBypass bool) *Verifier {
	return &Verifier{
		keyfunc:   kf,
		issuer:    issuer,
		audience:  audience,
		devBypass: devBypass,
		now:       time.Now,
	}
}

// NewJWKSVerifier fetches the pool key set from jwksURL and keeps it
// refreshed in the background for the lifetime of ctx.
func NewJWKSVerifier(ctx context.Context, jwksURL, issuer, audience string, devBypass bool) (*Verifier, error) {
	if devBypass {
		return NewVerifier(nil, issuer, audience, true), nil
	}
	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("load jwks %s: %w", jwksURL, err)
	}
	return NewVerifier(k.Keyfunc, issuer, audience, false), nil
}

// Subject verifies an ID token and returns its "sub" claim.
func (v *Verifier) Subject(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperr.Auth("missing id token", ErrUnauthorized)
	}

	var c idClaims
	if v.devBypass {
		if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
			return "", apperr.Auth("malformed id token", err)
		}
	} else {
		if v.keyfunc == nil {
			return "", apperr.Auth("token verifier is not configured", ErrUnauthorized)
		}
		_, err := jwt.ParseWithClaims(token, &c, v.keyfunc,
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithIssuer(v.issuer),
			jwt.WithAudience(v.audience),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(v.now),
		)
		if err != nil {
			return "", apperr.Auth("invalid id token", err)
		}
		if c.TokenUse != tokenUseID {
			return "", apperr.Auth("token is not an id token", ErrUnauthorized)
		}
	}

	if c.Subject == "" {
		return "", apperr.Auth("id token has no subject", ErrUnauthorized)
	}
	return c.Subject, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < len("bearer ") || !strings.EqualFold(header[:len("bearer ")], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(header[len("bearer "):])
	return tok, tok != ""
}
