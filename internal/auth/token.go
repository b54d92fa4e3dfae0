package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/campus-auth/internal/domain"
)

// Verification failure kinds. The codec reports precise kinds; callers
// decide how much of that detail to expose.
var (
	ErrMalformed    = errors.New("token malformed")
	ErrBadSignature = errors.New("token signature mismatch")
	ErrExpired      = errors.New("token expired")
)

// Principal is the verified identity carried by a token.
type Principal struct {
	Subject string
	Role    domain.Role
}

// TokenCodec mints and verifies HS256-signed JWTs. The secret and TTL are
// fixed at construction; every process that mints or verifies must be
// built with the same values.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec builds a codec from the shared signing key and token TTL.
func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: secret, ttl: ttl}
}

// Claims describes the JWT payload.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Mint signs a token for the subject with the role embedded as a claim.
// Deterministic for identical inputs and timestamp.
func (tc *TokenCodec) Mint(subject string, role domain.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(tc.ttl)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify validates signature and expiry at the given instant and returns
// the embedded principal. Expiry has no leeway window: a token is invalid
// from the exact expiry instant onward, and clock skew between processes
// is not compensated.
func (tc *TokenCodec) Verify(tokenStr string, now time.Time) (*Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrBadSignature
		}
		return tc.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrMalformed
		}
	}
	if !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" || !claims.Role.Valid() || claims.ExpiresAt == nil {
		return nil, ErrMalformed
	}
	if !now.Before(claims.ExpiresAt.Time) {
		return nil, ErrExpired
	}
	return &Principal{Subject: claims.Subject, Role: claims.Role}, nil
}
