// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/servicoja/models"
)

var selectUser = `SELECT ` + columns("u", userFields) + ` FROM users u`

func (s *PostgresStore) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, selectUser+` WHERE u.id = $1`, id); err != nil {
		return models.User{}, fmt.Errorf("get user: %w", mapError(err))
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, selectUser+` WHERE u.email = $1`, models.NormalizeEmail(email))
	if err != nil {
		return models.User{}, fmt.Errorf("get user by email: %w", mapError(err))
	}
	return u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	u.ID = uuid.NewString()
	u.Email = models.NormalizeEmail(u.Email)
	u.CreatedAt = timestamp(s.now())
	if u.Role == "" {
		u.Role = models.RoleClient
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, phone, city, photo_url, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Phone, u.City, u.PhotoURL, u.Role, u.CreatedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", mapError(err))
	}
	return u, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `
		UPDATE users SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			city = COALESCE($4, city),
			photo_url = COALESCE($5, photo_url)
		WHERE id = $1
		RETURNING `+columns("users", userFields),
		id, upd.Name, upd.Phone, upd.City, upd.PhotoURL)
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", mapError(err))
	}
	return u, nil
}

func (s *PostgresStore) SetUserPassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("set password: %w", mapError(err))
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token_hash, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`, tokenHash, userID, timestamp(expiresAt), timestamp(s.now()))
	if err != nil {
		return fmt.Errorf("create password reset: %w", mapError(err))
	}
	return nil
}

// ConsumePasswordReset marks the token used and returns its user. The
// update only matches unused, unexpired tokens so a token works once.
func (s *PostgresStore) ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var userID string
	err := s.db.GetContext(ctx, &userID, `
		UPDATE password_resets SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING user_id
	`, tokenHash, timestamp(now))
	if err != nil {
		return "", fmt.Errorf("consume password reset: %w", mapError(err))
	}
	return userID, nil
}
