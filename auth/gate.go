// Package auth checks the operator's credentials and issues the signed
// session token that every admin operation requires.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/folio-cms/folio/content"
)

// DefaultFloor is the minimum time a failed login takes.
const DefaultFloor = 100 * time.Millisecond

// ErrInvalidCredentials is the only failure a caller sees for a bad login,
// whatever the cause.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Users looks up the stored credential for an email.
type Users interface {
	UserByEmail(ctx context.Context, email string) (content.User, error)
}

// Logger is the subset of echo.Logger the gate writes to.
type Logger interface {
	Infoj(j log.JSON)
	Warnj(j log.JSON)
}

// Attempt is one login request.
type Attempt struct {
	Email    string
	Password string
	IP       string
}

// Gate authenticates attempts and verifies session tokens. It is passed to
// the handlers that need it.
type Gate struct {
	users  Users
	signer *Signer
	log    Logger
	floor  time.Duration
	sleep  func(context.Context, time.Duration)
}

// NewGate returns a Gate that fails no faster than floor. A zero floor means
// DefaultFloor.
func NewGate(users Users, signer *Signer, logger Logger, floor time.Duration) *Gate {
	if floor <= 0 {
		floor = DefaultFloor
	}
	return &Gate{users: users, signer: signer, log: logger, floor: floor, sleep: sleepCtx}
}

// Login checks the attempt and returns a signed token on success. Every
// credential failure returns ErrInvalidCredentials no earlier than the floor
// after the call started. Store errors are returned wrapped.
func (g *Gate) Login(ctx context.Context, a Attempt) (string, Session, error) {
	start := time.Now()
	email := strings.TrimSpace(strings.ToLower(a.Email))

	fail := func(reason string) (string, Session, error) {
		g.log.Warnj(log.JSON{
			"action":  "auth_attempt",
			"success": false,
			"reason":  reason,
			"email":   MaskEmail(email),
			"ip":      ipOrUnknown(a.IP),
		})
		if d := g.floor - time.Since(start); d > 0 {
			g.sleep(ctx, d)
		}
		return "", Session{}, ErrInvalidCredentials
	}

	if email == "" || a.Password == "" {
		return fail("missing_credentials")
	}
	u, err := g.users.UserByEmail(ctx, email)
	if errors.Is(err, content.ErrNotFound) {
		return fail("unknown_user")
	}
	if err != nil {
		return "", Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if u.EncryptedPassword == "" {
		return fail("no_password")
	}
	if !CheckPassword(u.EncryptedPassword, a.Password) {
		return fail("wrong_password")
	}

	token, sess, err := g.signer.Sign(u.ID, u.Email)
	if err != nil {
		return "", Session{}, err
	}
	g.log.Infoj(log.JSON{
		"action":  "auth_attempt",
		"success": true,
		"userId":  u.ID,
		"email":   MaskEmail(email),
		"ip":      ipOrUnknown(a.IP),
	})
	return token, sess, nil
}

// Verify returns the session carried by token, or ErrUnauthorized.
func (g *Gate) Verify(token string) (Session, error) {
	return g.signer.Verify(token)
}

func ipOrUnknown(ip string) string {
	if ip == "" {
		return "unknown"
	}
	return ip
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
