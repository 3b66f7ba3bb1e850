// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Postgres error codes we translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Column lists, in struct order.
var (
	userFields = []string{"id", "email", "password_hash", "name", "phone", "city", "photo_url", "role", "created_at"}

	providerFields = []string{
		"id", "user_id", "description", "hourly_rate", "city", "whatsapp", "facebook",
		"is_verified", "is_online", "total_ratings", "average_rating", "created_at",
	}

	categoryFields     = []string{"id", "name", "icon", "description"}
	serviceFields      = []string{"id", "provider_id", "category_id", "name", "description", "price", "duration", "photo_url", "is_active", "created_at"}
	reviewFields       = []string{"id", "provider_id", "client_id", "order_id", "rating", "comment", "created_at"}
	conversationFields = []string{"id", "client_id", "provider_id", "last_message_at", "created_at"}
	messageFields      = []string{"id", "conversation_id", "sender_id", "content", "is_read", "created_at"}
	favoriteFields     = []string{"id", "user_id", "provider_id", "created_at"}

	orderFields = []string{
		"id", "client_id", "provider_id", "service_id", "status", "scheduled_date", "completed_date",
		"price", "notes", "client_notes", "provider_notes", "created_at",
	}
)

// PostgresStore implements Storage on top of Postgres.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresStore wraps an open lib/pq connection pool.
func NewPostgresStore(conn *sql.DB) *PostgresStore {
	return &PostgresStore{db: sqlx.NewDb(conn, "postgres"), now: time.Now}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// mapError translates driver errors into store sentinels.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrInvalidReference, pqErr.Constraint)
		}
	}
	return err
}

// columns renders "alias.a, alias.b".
func columns(alias string, fields []string) string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = alias + "." + f
	}
	return strings.Join(out, ", ")
}

// nested renders `alias.a AS "prefix.a"` so sqlx scans into a nested struct field.
func nested(alias, prefix string, fields []string) string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = fmt.Sprintf(`%s.%s AS "%s.%s"`, alias, f, prefix, f)
	}
	return strings.Join(out, ", ")
}

// likePattern escapes LIKE metacharacters and wraps s for a substring match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// withTx runs fn in a transaction, rolling back on error.
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// requireAffected turns a zero-row write into ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
