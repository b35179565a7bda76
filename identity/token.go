package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource verifies HS256 bearer tokens and returns the "sub" claim
// as the caller identity.
type TokenSource struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

// TokenOption configures a TokenSource.
type TokenOption func(*TokenSource)

// WithIssuer requires (and stamps) the "iss" claim.
func WithIssuer(iss string) TokenOption {
	return func(s *TokenSource) { s.issuer = iss }
}

// WithAudience requires (and stamps) the "aud" claim.
func WithAudience(aud string) TokenOption {
	return func(s *TokenSource) { s.audience = aud }
}

// WithLeeway tolerates clock skew when validating time-based claims.
func WithLeeway(d time.Duration) TokenOption {
	return func(s *TokenSource) { s.leeway = d }
}

// WithTokenClock overrides the clock used for issuing and validating tokens.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(s *TokenSource) { s.now = now }
}

// NewTokenSource creates a TokenSource signing and verifying with secret.
func NewTokenSource(secret []byte, opts ...TokenOption) *TokenSource {
	s := &TokenSource{
		secret: secret,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints a token for who that expires after ttl.
func (s *TokenSource) Issue(who Identity, ttl time.Duration) (string, error) {
	if who.IsZero() {
		return "", fmt.Errorf("identity: issue token: %w", ErrUnknownCredential)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   who.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Identify implements Source. The credential may carry a "Bearer " prefix.
func (s *TokenSource) Identify(_ context.Context, credential string) (Identity, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if raw == "" {
		return "", ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}
	if s.leeway > 0 {
		opts = append(opts, jwt.WithLeeway(s.leeway))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	who := Identity(claims.Subject)
	if who.IsZero() {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return who, nil
}
