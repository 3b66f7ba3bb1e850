// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/danielhkuo/servicoja/models"
)

var selectConversation = `SELECT ` + columns("c", conversationFields) + ` FROM conversations c`

// ListConversations returns the conversations userID takes part in, either
// as the client or as the owner of the provider profile.
func (s *PostgresStore) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	convs := []models.ConversationSummary{}
	err := s.db.SelectContext(ctx, &convs, `
		SELECT `+columns("c", conversationFields)+`,
			`+nested("cu", "client", userFields)+`,
			`+nested("p", "provider", providerFields)+`,
			`+nested("pu", "provider.user", userFields)+`,
			(SELECT COUNT(*) FROM messages m
				WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND NOT m.is_read) AS unread_count
		FROM conversations c
		JOIN users cu ON cu.id = c.client_id
		JOIN providers p ON p.id = c.provider_id
		JOIN users pu ON pu.id = p.user_id
		WHERE c.client_id = $1 OR p.user_id = $1
		ORDER BY c.last_message_at DESC, c.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", mapError(err))
	}
	if len(convs) == 0 {
		return convs, nil
	}

	ids := make([]string, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}
	var last []models.Message
	err = s.db.SelectContext(ctx, &last, `
		SELECT DISTINCT ON (m.conversation_id) `+columns("m", messageFields)+`
		FROM messages m
		WHERE m.conversation_id = ANY($1)
		ORDER BY m.conversation_id, m.created_at DESC, m.id DESC
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list last messages: %w", mapError(err))
	}
	byConv := make(map[string]models.Message, len(last))
	for _, m := range last {
		byConv[m.ConversationID] = m
	}
	for i := range convs {
		if m, ok := byConv[convs[i].ID]; ok {
			convs[i].LastMessage = &m
		}
	}
	return convs, nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	var c models.Conversation
	if err := s.db.GetContext(ctx, &c, selectConversation+` WHERE c.id = $1`, id); err != nil {
		return models.Conversation{}, fmt.Errorf("get conversation: %w", mapError(err))
	}
	return c, nil
}

// GetOrCreateConversation returns the conversation for the pair, creating it
// if needed. The bool reports whether a new row was inserted.
func (s *PostgresStore) GetOrCreateConversation(ctx context.Context, clientID, providerID string) (models.Conversation, bool, error) {
	now := timestamp(s.now())
	var c models.Conversation
	err := s.db.GetContext(ctx, &c, `
		INSERT INTO conversations (id, client_id, provider_id, last_message_at, created_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (client_id, provider_id) DO NOTHING
		RETURNING `+columns("conversations", conversationFields),
		uuid.NewString(), clientID, providerID, now)
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, false, fmt.Errorf("create conversation: %w", mapError(err))
	}

	err = s.db.GetContext(ctx, &c, selectConversation+` WHERE c.client_id = $1 AND c.provider_id = $2`, clientID, providerID)
	if err != nil {
		return models.Conversation{}, false, fmt.Errorf("get conversation: %w", mapError(err))
	}
	return c, false, nil
}

// ListMessages returns messages oldest first. When after is set only
// messages created strictly later are returned.
func (s *PostgresStore) ListMessages(ctx context.Context, conversationID string, after *time.Time) ([]models.MessageWithSender, error) {
	query := `
		SELECT ` + columns("m", messageFields) + `, ` + nested("u", "sender", userFields) + `
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_id = $1`
	args := []any{conversationID}
	if after != nil {
		query += ` AND m.created_at > $2`
		args = append(args, timestamp(*after))
	}
	query += ` ORDER BY m.created_at ASC, m.id ASC`

	messages := []models.MessageWithSender{}
	if err := s.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("list messages: %w", mapError(err))
	}
	return messages, nil
}

// CreateMessage stamps the message strictly after the conversation's
// previous message and bumps lastMessageAt. The conversation row lock
// orders concurrent senders, so created_at grows in commit order and
// polling with after never skips a message.
func (s *PostgresStore) CreateMessage(ctx context.Context, m models.Message) (models.Message, error) {
	m.ID = uuid.NewString()
	m.IsRead = false
	now := timestamp(s.now())

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &m.CreatedAt, `
			UPDATE conversations
			SET last_message_at = GREATEST($2, last_message_at + INTERVAL '1 microsecond')
			WHERE id = $1
			RETURNING last_message_at
		`, m.ConversationID, now)
		if err != nil {
			return err
		}
		m.CreatedAt = m.CreatedAt.UTC()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (id, conversation_id, sender_id, content, is_read, created_at)
			VALUES ($1, $2, $3, $4, FALSE, $5)
		`, m.ID, m.ConversationID, m.SenderID, m.Content, m.CreatedAt)
		return err
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("create message: %w", mapError(err))
	}
	return m, nil
}

// MarkMessagesRead marks every unread message in the conversation not sent
// by readerID and returns how many changed.
func (s *PostgresStore) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND NOT is_read
	`, conversationID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListFavorites(ctx context.Context, userID string) ([]models.FavoriteWithProvider, error) {
	favorites := []models.FavoriteWithProvider{}
	err := s.db.SelectContext(ctx, &favorites, `
		SELECT `+columns("f", favoriteFields)+`,
			`+nested("p", "provider", providerFields)+`,
			`+nested("u", "provider.user", userFields)+`
		FROM favorites f
		JOIN providers p ON p.id = f.provider_id
		JOIN users u ON u.id = p.user_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, f.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", mapError(err))
	}
	return favorites, nil
}

// AddFavorite bookmarks a provider. Adding an existing favorite returns it
// with created set to false.
func (s *PostgresStore) AddFavorite(ctx context.Context, userID, providerID string) (models.Favorite, bool, error) {
	var f models.Favorite
	err := s.db.GetContext(ctx, &f, `
		INSERT INTO favorites (id, user_id, provider_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, provider_id) DO NOTHING
		RETURNING `+columns("favorites", favoriteFields),
		uuid.NewString(), userID, providerID, timestamp(s.now()))
	if err == nil {
		return f, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Favorite{}, false, fmt.Errorf("add favorite: %w", mapError(err))
	}

	err = s.db.GetContext(ctx, &f, `
		SELECT `+columns("f", favoriteFields)+` FROM favorites f
		WHERE f.user_id = $1 AND f.provider_id = $2
	`, userID, providerID)
	if err != nil {
		return models.Favorite{}, false, fmt.Errorf("get favorite: %w", mapError(err))
	}
	return f, false, nil
}

// RemoveFavorite deletes the bookmark. Removing a missing favorite is not an error.
func (s *PostgresStore) RemoveFavorite(ctx context.Context, userID, providerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND provider_id = $2`, userID, providerID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", mapError(err))
	}
	return nil
}

func (s *PostgresStore) IsFavorite(ctx context.Context, userID, providerID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND provider_id = $2)
	`, userID, providerID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", mapError(err))
	}
	return exists, nil
}
