// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/servicoja/models"
)

var selectService = `SELECT ` + columns("s", serviceFields) + ` FROM services s`

func (s *PostgresStore) ListServices(ctx context.Context, providerID string) ([]models.Service, error) {
	services := []models.Service{}
	err := s.db.SelectContext(ctx, &services, selectService+`
		WHERE s.provider_id = $1
		ORDER BY s.created_at ASC, s.id ASC
	`, providerID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", mapError(err))
	}
	return services, nil
}

func (s *PostgresStore) GetService(ctx context.Context, id string) (models.Service, error) {
	var svc models.Service
	if err := s.db.GetContext(ctx, &svc, selectService+` WHERE s.id = $1`, id); err != nil {
		return models.Service{}, fmt.Errorf("get service: %w", mapError(err))
	}
	return svc, nil
}

func (s *PostgresStore) CreateService(ctx context.Context, svc models.Service) (models.Service, error) {
	svc.ID = uuid.NewString()
	svc.CreatedAt = timestamp(s.now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO services (id, provider_id, category_id, name, description, price, duration, photo_url, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, svc.ID, svc.ProviderID, svc.CategoryID, svc.Name, svc.Description, svc.Price, svc.Duration,
		svc.PhotoURL, svc.IsActive, svc.CreatedAt)
	if err != nil {
		return models.Service{}, fmt.Errorf("create service: %w", mapError(err))
	}
	return svc, nil
}

func (s *PostgresStore) UpdateService(ctx context.Context, id string, upd models.ServiceUpdate) (models.Service, error) {
	var svc models.Service
	err := s.db.GetContext(ctx, &svc, `
		UPDATE services SET
			category_id = COALESCE($2, category_id),
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			price = COALESCE($5, price),
			duration = COALESCE($6, duration),
			photo_url = COALESCE($7, photo_url),
			is_active = COALESCE($8, is_active)
		WHERE id = $1
		RETURNING `+columns("services", serviceFields),
		id, upd.CategoryID, upd.Name, upd.Description, upd.Price, upd.Duration, upd.PhotoURL, upd.IsActive)
	if err != nil {
		return models.Service{}, fmt.Errorf("update service: %w", mapError(err))
	}
	return svc, nil
}

func (s *PostgresStore) DeleteService(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", mapError(err))
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListReviews(ctx context.Context, providerID string) ([]models.ReviewWithClient, error) {
	reviews := []models.ReviewWithClient{}
	err := s.db.SelectContext(ctx, &reviews, `
		SELECT `+columns("r", reviewFields)+`, `+nested("u", "client", userFields)+`
		FROM reviews r
		JOIN users u ON u.id = r.client_id
		WHERE r.provider_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`, providerID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", mapError(err))
	}
	return reviews, nil
}

// CreateReview inserts the review and recomputes the provider's rating
// aggregates in the same transaction. The provider row is locked first so
// concurrent reviews recompute one after another.
func (s *PostgresStore) CreateReview(ctx context.Context, r models.Review) (models.Review, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = timestamp(s.now())

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT 1 FROM providers WHERE id = $1 FOR UPDATE`, r.ProviderID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reviews (id, provider_id, client_id, order_id, rating, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, r.ID, r.ProviderID, r.ClientID, r.OrderID, r.Rating, r.Comment, r.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE providers SET
				total_ratings = agg.total,
				average_rating = agg.average
			FROM (
				SELECT COUNT(*) AS total, COALESCE(ROUND(AVG(rating)::numeric, 1), 0) AS average
				FROM reviews WHERE provider_id = $1
			) agg
			WHERE providers.id = $1
		`, r.ProviderID)
		return err
	})
	if err != nil {
		return models.Review{}, fmt.Errorf("create review: %w", mapError(err))
	}
	return r, nil
}
