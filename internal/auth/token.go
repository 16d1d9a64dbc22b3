// Package auth issues and verifies session tokens and hashes passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/replog/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Default token lifetimes.
const (
	DefaultSessionTTL  = 24 * time.Hour
	DefaultRememberTTL = 30 * 24 * time.Hour
)

// CookieName carries the token for browser-style clients.
const CookieName = "replog_token"

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims of a session token.
type Claims struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	RememberMe bool   `json:"remember_me"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret      []byte
	sessionTTL  time.Duration
	rememberTTL time.Duration
	clock       clockwork.Clock
}

// NewIssuer creates an Issuer. Zero TTLs fall back to the defaults; a nil
// clock means the real clock.
func NewIssuer(secret string, sessionTTL, rememberTTL time.Duration, clock clockwork.Clock) *Issuer {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if rememberTTL <= 0 {
		rememberTTL = DefaultRememberTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Issuer{secret: []byte(secret), sessionTTL: sessionTTL, rememberTTL: rememberTTL, clock: clock}
}

// TTL returns the token lifetime for the remember-me choice.
func (i *Issuer) TTL(rememberMe bool) time.Duration {
	if rememberMe {
		return i.rememberTTL
	}
	return i.sessionTTL
}

// Issue signs a token for u and returns it with its expiry.
func (i *Issuer) Issue(u *models.User, rememberMe bool) (string, time.Time, error) {
	now := i.clock.Now()
	exp := now.Add(i.TTL(rememberMe))
	claims := Claims{
		Email:      u.Email,
		Name:       u.Name,
		RememberMe: rememberMe,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies the signature and expiry of token against the issuer's
// clock and returns its claims.
func (i *Issuer) Parse(token string) (*Claims, error) {
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil || !i.clock.Now().Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return &claims, nil
}

// Identity converts verified claims into the caller identity.
func (c *Claims) Identity() Identity {
	return Identity{UserID: uuid.MustParse(c.Subject), Email: c.Email, Name: c.Name}
}

type ctxKey struct{}

// WithIdentity attaches the caller to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller attached by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
