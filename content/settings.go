package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// NotesKey is the settings key holding the admin's free-form notes.
const NotesKey = "admin_personal_notes"

// GetSetting returns the value stored under key, creating an empty entry
// on first access.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	now := s.stamp()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO settings (key, value, created_at, updated_at)
		VALUES (?, '', ?, ?) ON CONFLICT(key) DO NOTHING`, key, now, now); err != nil {
		return "", fmt.Errorf("init setting %s: %w", key, err)
	}
	var value string
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value); err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores value under key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	now := s.stamp()
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now, now)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// UserByEmail returns the user with the given email, compared
// case-insensitively.
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	var created, updated string
	err := s.db.QueryRowContext(ctx, `SELECT id, email, encrypted_password, created_at, updated_at
		FROM users WHERE email = ?`, normalizeEmail(email)).
		Scan(&u.ID, &u.Email, &u.EncryptedPassword, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseStamp(created)
	u.UpdatedAt = parseStamp(updated)
	return u, nil
}

// UpsertUser creates the user or replaces the password hash of an existing
// one.
func (s *Store) UpsertUser(ctx context.Context, email, hash string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, &ValidationError{Problems: []string{"email is invalid"}}
	}
	now := s.stamp()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO users (email, encrypted_password, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET encrypted_password = excluded.encrypted_password, updated_at = excluded.updated_at`,
		email, hash, now, now); err != nil {
		return User{}, fmt.Errorf("upsert user: %w", err)
	}
	return s.UserByEmail(ctx, email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
