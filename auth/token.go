package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the absolute lifetime of a session token. Tokens are never
// renewed.
const TokenTTL = 24 * time.Hour

// ErrUnauthorized is returned for any missing, malformed or expired token.
var ErrUnauthorized = errors.New("unauthorized")

// Session is the identity carried by a valid token.
type Session struct {
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 session tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, ttl: TokenTTL, now: time.Now}
}

// Sign returns a token for the user valid for TokenTTL from now.
func (s *Signer) Sign(userID int64, email string) (string, Session, error) {
	iat := s.now().Truncate(time.Second)
	exp := iat.Add(s.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, Session{UserID: userID, Email: email, ExpiresAt: exp}, nil
}

// Verify checks the signature and expiry of token.
func (s *Signer) Verify(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrUnauthorized
	}
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Session{}, ErrUnauthorized
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Session{}, ErrUnauthorized
	}
	return Session{UserID: id, Email: c.Email, ExpiresAt: c.ExpiresAt.Time}, nil
}
