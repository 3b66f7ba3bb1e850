// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/servicoja/models"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	s := NewPostgresStore(conn)
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func q(query string) string {
	return regexp.QuoteMeta(query)
}

func prefixed(prefix string, fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = prefix + "." + f
	}
	return out
}

func userValues(id, email, name string) []driver.Value {
	return []driver.Value{id, email, "hash", name, nil, nil, nil, models.RoleClient, fixedNow}
}

func providerValues(id, userID string, rate any, rating float64) []driver.Value {
	return []driver.Value{id, userID, nil, rate, "Luanda", nil, nil, true, false, 3, rating, fixedNow}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"unique violation", &pq.Error{Code: "23505", Constraint: "users_email_key"}, ErrConflict},
		{"foreign key violation", &pq.Error{Code: "23503"}, ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err), tt.want)
		})
	}

	other := errors.New("boom")
	assert.Equal(t, other, mapError(other))
	assert.Equal(t, "conflict: users_email_key", mapError(&pq.Error{Code: "23505", Constraint: "users_email_key"}).Error())
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%luanda%", likePattern("luanda"))
	assert.Equal(t, `%100\%\_off\\%`, likePattern(`100%_off\`))
}

func TestPostgresGetUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(q(`FROM users u WHERE u.id = $1`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userFields).AddRow(userValues("u1", "ana@example.com", "Ana")...))

	u, err := s.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.Nil(t, u.Phone)

	mock.ExpectQuery(q(`FROM users u WHERE u.email = $1`)).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows(userFields))

	_, err = s.GetUserByEmail(context.Background(), " Missing@Example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresCreateUserDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(q(`INSERT INTO users`)).
		WithArgs(sqlmock.AnyArg(), "ana@example.com", "hash", "Ana", nil, nil, nil, models.RoleClient, fixedNow).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	_, err := s.CreateUser(context.Background(), models.User{Email: "ANA@example.com", PasswordHash: "hash", Name: "Ana"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPostgresConsumePasswordReset(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(q(`UPDATE password_resets SET used_at = $2`)).
		WithArgs("token-hash", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))

	userID, err := s.ConsumePasswordReset(context.Background(), "token-hash", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	mock.ExpectQuery(q(`UPDATE password_resets SET used_at = $2`)).
		WithArgs("token-hash", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err = s.ConsumePasswordReset(context.Background(), "token-hash", fixedNow)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresCreateProvider(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(`INSERT INTO providers`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`INSERT INTO provider_categories`)).
		WithArgs(sqlmock.AnyArg(), "cat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`UPDATE users SET role = $2 WHERE id = $1`)).
		WithArgs("u1", models.RoleProvider).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := s.CreateProvider(context.Background(), models.Provider{UserID: "u1", City: "Luanda"}, []string{"cat-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, fixedNow, p.CreatedAt)
}

func TestPostgresCreateProviderRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(`INSERT INTO providers`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`INSERT INTO provider_categories`)).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "provider_categories_category_id_fkey"})
	mock.ExpectRollback()

	_, err := s.CreateProvider(context.Background(), models.Provider{UserID: "u1", City: "Luanda"}, []string{"nope"})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestProviderWhere(t *testing.T) {
	where, args := providerWhere(models.ProviderFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = providerWhere(models.ProviderFilter{
		CategoryID: "cat-1",
		City:       "Luanda",
		MinRating:  ptr(4.0),
		MaxPrice:   ptr(2000.0),
		Search:     "pint",
	})
	assert.Contains(t, where, "pc.category_id = $1")
	assert.Contains(t, where, "p.city ILIKE $2")
	assert.Contains(t, where, "p.average_rating >= $3")
	assert.Contains(t, where, "COALESCE(p.hourly_rate, 0) <= $4")
	assert.Contains(t, where, "u.name ILIKE $5")
	assert.Equal(t, []any{"cat-1", "%Luanda%", 4.0, 2000.0, "%pint%"}, args)
}

func TestPostgresListProviders(t *testing.T) {
	s, mock := newMockStore(t)

	cols := append(append(append([]string{}, providerFields...), prefixed("user", userFields)...), "total_count")
	row := func(id, userID, name string, rating float64) []driver.Value {
		vals := append(providerValues(id, userID, 1500.0, rating), userValues(userID, name+"@example.com", name)...)
		return append(vals, 7)
	}

	mock.ExpectQuery(q(`COUNT(*) OVER() AS total_count FROM providers p JOIN users u ON u.id = p.user_id WHERE p.city ILIKE $1 ORDER BY p.average_rating DESC`)).
		WithArgs("%Luanda%", 2, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(row("p1", "u1", "Ana", 4.8)...).
			AddRow(row("p2", "u2", "Bruno", 4.1)...))

	mock.ExpectQuery(q(`WHERE pc.provider_id = ANY($1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(append([]string{"provider_id"}, categoryFields...)).
			AddRow("p1", "cat-1", "Limpeza", "broom", nil))

	list, total, err := s.ListProviders(context.Background(), models.ProviderFilter{City: "Luanda", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, list, 2)
	assert.Equal(t, "Ana", list[0].User.Name)
	assert.Equal(t, 1500.0, *list[0].HourlyRate)
	require.Len(t, list[0].Categories, 1)
	assert.Equal(t, "Limpeza", list[0].Categories[0].Name)
	assert.NotNil(t, list[1].Categories)
	assert.Empty(t, list[1].Categories)
}

func TestPostgresListProvidersPastLastPage(t *testing.T) {
	s, mock := newMockStore(t)

	cols := append(append(append([]string{}, providerFields...), prefixed("user", userFields)...), "total_count")
	mock.ExpectQuery(q(`ORDER BY p.hourly_rate ASC NULLS LAST`)).
		WithArgs(20, 40).
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(q(`SELECT COUNT(*) FROM providers p JOIN users u ON u.id = p.user_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	list, total, err := s.ListProviders(context.Background(), models.ProviderFilter{Sort: models.SortByPrice, Offset: 40})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 12, total)
}

func TestPostgresCreateReview(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(`SELECT 1 FROM providers WHERE id = $1 FOR UPDATE`)).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`INSERT INTO reviews`)).
		WithArgs(sqlmock.AnyArg(), "p1", "u1", nil, 5, nil, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`UPDATE providers SET`)).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r, err := s.CreateReview(context.Background(), models.Review{ProviderID: "p1", ClientID: "u1", Rating: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
}

func TestPostgresCreateReviewDuplicateOrder(t *testing.T) {
	s, mock := newMockStore(t)
	orderID := "o1"

	mock.ExpectBegin()
	mock.ExpectExec(q(`FOR UPDATE`)).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`INSERT INTO reviews`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "reviews_order_id_key"})
	mock.ExpectRollback()

	_, err := s.CreateReview(context.Background(), models.Review{ProviderID: "p1", ClientID: "u1", OrderID: &orderID, Rating: 4})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPostgresGetOrCreateConversation(t *testing.T) {
	s, mock := newMockStore(t)
	convRow := []driver.Value{"c1", "u1", "p1", fixedNow, fixedNow}

	mock.ExpectQuery(q(`INSERT INTO conversations`)).
		WithArgs(sqlmock.AnyArg(), "u1", "p1", fixedNow).
		WillReturnRows(sqlmock.NewRows(conversationFields).AddRow(convRow...))

	c, created, err := s.GetOrCreateConversation(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "c1", c.ID)

	mock.ExpectQuery(q(`INSERT INTO conversations`)).
		WillReturnRows(sqlmock.NewRows(conversationFields))
	mock.ExpectQuery(q(`WHERE c.client_id = $1 AND c.provider_id = $2`)).
		WithArgs("u1", "p1").
		WillReturnRows(sqlmock.NewRows(conversationFields).AddRow(convRow...))

	c, created, err = s.GetOrCreateConversation(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "c1", c.ID)
}

func TestPostgresListMessagesAfter(t *testing.T) {
	s, mock := newMockStore(t)
	after := fixedNow.Add(-time.Minute)

	cols := append(append([]string{}, messageFields...), prefixed("sender", userFields)...)
	vals := append([]driver.Value{"m1", "c1", "u1", "Olá", false, fixedNow}, userValues("u1", "ana@example.com", "Ana")...)

	mock.ExpectQuery(q(`WHERE m.conversation_id = $1 AND m.created_at > $2 ORDER BY m.created_at ASC`)).
		WithArgs("c1", after).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(vals...))

	msgs, err := s.ListMessages(context.Background(), "c1", &after)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Olá", msgs[0].Content)
	assert.Equal(t, "Ana", msgs[0].Sender.Name)
}

func TestPostgresCreateMessage(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`SET last_message_at = GREATEST($2, last_message_at + INTERVAL '1 microsecond') WHERE id = $1 RETURNING last_message_at`)).
		WithArgs("c1", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"last_message_at"}).AddRow(fixedNow))
	mock.ExpectExec(q(`INSERT INTO messages`)).
		WithArgs(sqlmock.AnyArg(), "c1", "u1", "Olá", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, err := s.CreateMessage(context.Background(), models.Message{ConversationID: "c1", SenderID: "u1", Content: "Olá"})
	require.NoError(t, err)
	assert.False(t, m.IsRead)
	assert.True(t, fixedNow.Equal(m.CreatedAt))
}

func TestPostgresCreateMessageAfterClockSkew(t *testing.T) {
	s, mock := newMockStore(t)
	// Another instance already stamped a later message
	previous := fixedNow.Add(2 * time.Second)
	bumped := previous.Add(time.Microsecond)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`RETURNING last_message_at`)).
		WithArgs("c1", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"last_message_at"}).AddRow(bumped))
	mock.ExpectExec(q(`INSERT INTO messages`)).
		WithArgs(sqlmock.AnyArg(), "c1", "u1", "Olá", bumped).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, err := s.CreateMessage(context.Background(), models.Message{ConversationID: "c1", SenderID: "u1", Content: "Olá"})
	require.NoError(t, err)
	assert.True(t, m.CreatedAt.After(previous))
}

func TestPostgresCreateMessageUnknownConversation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`RETURNING last_message_at`)).
		WithArgs("missing", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"last_message_at"}))
	mock.ExpectRollback()

	_, err := s.CreateMessage(context.Background(), models.Message{ConversationID: "missing", SenderID: "u1", Content: "Olá"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresMarkMessagesRead(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(q(`UPDATE messages SET is_read = TRUE`)).
		WithArgs("c1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.MarkMessagesRead(context.Background(), "c1", "u2")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestPostgresDeleteServiceNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(q(`DELETE FROM services WHERE id = $1`)).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.DeleteService(context.Background(), "s1"), ErrNotFound)
}

func TestPostgresUpdateOrderStatus(t *testing.T) {
	orderRow := func(status string) []driver.Value {
		return []driver.Value{"o1", "u1", "p1", nil, status, nil, nil, nil, nil, nil, nil, fixedNow}
	}

	t.Run("applies transition", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(q(`UPDATE service_orders SET`)).
			WithArgs("o1", models.OrderInProgress, models.OrderCompleted, nil, fixedNow).
			WillReturnRows(sqlmock.NewRows(orderFields).AddRow(orderRow(models.OrderCompleted)...))

		o, err := s.UpdateOrderStatus(context.Background(), "o1", models.OrderInProgress, models.OrderCompleted, nil, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, models.OrderCompleted, o.Status)
	})

	t.Run("stale status conflicts", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(q(`UPDATE service_orders SET`)).
			WillReturnRows(sqlmock.NewRows(orderFields))
		mock.ExpectQuery(q(`FROM service_orders o WHERE o.id = $1`)).
			WithArgs("o1").
			WillReturnRows(sqlmock.NewRows(orderFields).AddRow(orderRow(models.OrderCancelled)...))

		_, err := s.UpdateOrderStatus(context.Background(), "o1", models.OrderPending, models.OrderAccepted, nil, fixedNow)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("missing order", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(q(`UPDATE service_orders SET`)).
			WillReturnRows(sqlmock.NewRows(orderFields))
		mock.ExpectQuery(q(`FROM service_orders o WHERE o.id = $1`)).
			WillReturnRows(sqlmock.NewRows(orderFields))

		_, err := s.UpdateOrderStatus(context.Background(), "o1", models.OrderPending, models.OrderAccepted, nil, fixedNow)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestProviderOrderNameIgnoresCase(t *testing.T) {
	assert.Contains(t, providerOrder(models.SortByName), "LOWER(u.name) ASC")
	assert.Contains(t, providerOrder(models.SortByPrice), "NULLS LAST")
}
