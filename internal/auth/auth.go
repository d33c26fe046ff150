// Package auth handles password hashing and the bearer tokens that identify
// API callers.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is how long a login token stays valid.
const TokenTTL = 24 * time.Hour

// ErrInvalidToken is returned for missing, malformed or expired tokens.
var ErrInvalidToken = errors.New("invalid token")

// HashPassword bcrypt-hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("HashPassword: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash. An
// empty hash never matches; OAuth-only users have no password.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Tokens issues and verifies the signed bearer tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// NewTokens builds a token issuer with the given signing secret.
func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issue signs a token identifying the user, valid for TokenTTL.
func (t *Tokens) Issue(userID uuid.UUID, email string) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("Issue: signing token: %w", err)
	}
	return signed, nil
}

// Verify parses a bearer token and returns the user it identifies.
func (t *Tokens) Verify(tokenString string) (uuid.UUID, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return t.now() }))
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}
