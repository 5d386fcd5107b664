// Package auth provides JWT issuing/verification, bcrypt password hashing,
// and the request middleware that gates authenticated routes.
//
// AUTHENTICATION FLOW:
//  1. POST /api/users/signup stores {username, bcrypt(password)}
//  2. POST /api/users/login verifies the password and issues a JWT carrying
//     the identity claims {username, userId}
//  3. Clients send "Authorization: Bearer <token>" on protected routes
//  4. RequireAuth validates the token and puts the Identity in the request
//     context; handlers read it with IdentityFromContext
//
// The token is stateless — verification needs only the HMAC secret, no DB
// lookup. The signature makes the claims tamper-proof.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "snipvault"

// DefaultTokenTTL is how long an issued token stays valid. One hour: long
// enough for a working session, short enough that a leaked token has a
// bounded window. Every token expires — there is no non-expiring variant.
const DefaultTokenTTL = time.Hour

// Identity is the verified caller identity carried by a token.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// TokenService issues and verifies HS256-signed JWTs.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. A zero ttl falls back to DefaultTokenTTL. The secret should be
// at least 32 bytes of random data in production (JWT_SECRET=$(openssl rand
// -hex 32)); anything under 16 characters is rejected outright.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. The user ID rides in the registered "sub"
// claim; the username is a private claim alongside it so the middleware can
// reconstruct the full Identity without a database round trip.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Generate creates and signs a token for the given identity.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.generate(id, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used by tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	return s.generate(id, d)
}

func (s *TokenService) generate(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the Identity it
// encodes.
//
// Checks performed: signature, expiry (exp is required — a token without one
// is invalid), issuer, and signing algorithm. Restricting the algorithm to
// HS256 via jwt.WithValidMethods blocks algorithm-confusion attacks where an
// attacker submits a token declaring alg "none".
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}

	return Identity{UserID: c.Subject, Username: c.Username}, nil
}
