// Package auth verifies bearer credentials, carries the verified identity
// through request contexts, and decides what an identity is allowed to do.
package auth

import (
	"teamchat/backend/internal/apperr"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Identity is the verified caller attached to a session or request.
type Identity struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
}

// Claims is the payload carried inside a signed token.
type Claims struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

type verifyOptions struct {
	allowUnverified bool
}

// VerifyOption tunes a single Verify call.
type VerifyOption func(*verifyOptions)

// AllowUnverified accepts identities whose account is not verified yet.
// Only the verification step itself should use it.
func AllowUnverified() VerifyOption {
	return func(o *verifyOptions) { o.allowUnverified = true }
}

// TokenVerifier validates HS256 tokens against a shared signing key.
// It holds no mutable state and is safe for concurrent use.
type TokenVerifier struct {
	key    []byte
	issuer string
	leeway time.Duration
}

// NewTokenVerifier creates a verifier for tokens signed with key and issued by issuer.
func NewTokenVerifier(key []byte, issuer string, leeway time.Duration) *TokenVerifier {
	return &TokenVerifier{key: key, issuer: issuer, leeway: leeway}
}

// Verify checks signature, expiry and issuer of token and returns the identity it carries.
func (v *TokenVerifier) Verify(token string, opts ...VerifyOption) (Identity, error) {
	var o verifyOptions
	for _, opt := range opts {
		opt(&o)
	}

	if token == "" {
		return Identity{}, apperr.Authentication("Missing access token", nil)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, apperr.Authentication("Access token expired", err)
		}
		return Identity{}, apperr.Authentication("Invalid access token", err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return Identity{}, apperr.Authentication("Invalid access token", jwt.ErrTokenInvalidClaims)
	}

	if !claims.EmailVerified && !o.allowUnverified {
		return Identity{}, apperr.Authentication("Account is not verified", nil)
	}

	return Identity{
		UserID:     claims.UserID,
		Email:      claims.Email,
		IsVerified: claims.EmailVerified,
	}, nil
}

// TokenIssuer signs tokens understood by TokenVerifier.
type TokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

func NewTokenIssuer(key []byte, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: key, issuer: issuer, ttl: ttl}
}

// Issue creates a signed token for id.
func (i *TokenIssuer) Issue(id Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:        id.UserID,
		Email:         id.Email,
		EmailVerified: id.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    i.issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}
