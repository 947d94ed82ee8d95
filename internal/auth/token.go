// Package auth issues and validates signed download tokens. Tokens bind a
// single attachment ID with a short TTL so download links can be shared
// without exposing the whole API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid download token")
	ErrExpiredToken  = errors.New("download token has expired")
	ErrTokenMismatch = errors.New("download token does not match attachment")
)

// TokenIssuer signs and validates download tokens with an HMAC secret
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer. An empty secret disables signing;
// Enabled reports whether tokens are in use.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Enabled reports whether download tokens are configured
func (t *TokenIssuer) Enabled() bool {
	return len(t.secret) > 0
}

// TTL returns the configured token lifetime
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue creates a signed token for the given attachment, valid for the
// configured TTL. Returns the token and its expiry time.
func (t *TokenIssuer) Issue(attachmentID uuid.UUID) (string, time.Time, error) {
	if !t.Enabled() {
		return "", time.Time{}, errors.New("download tokens are not configured")
	}

	expiresAt := time.Now().UTC().Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   attachmentID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign download token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate checks the token signature and expiry and verifies it was
// issued for the given attachment.
func (t *TokenIssuer) Validate(tokenString string, attachmentID uuid.UUID) error {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !parsed.Valid {
		return ErrInvalidToken
	}

	if claims.Subject != attachmentID.String() {
		return ErrTokenMismatch
	}

	return nil
}
