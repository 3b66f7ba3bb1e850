// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/danielhkuo/servicoja/models"
)

var (
	selectProvider = `SELECT ` + columns("p", providerFields) + ` FROM providers p`

	providerWithUserColumns = columns("p", providerFields) + `, ` + nested("u", "user", userFields)

	selectProviderWithUser = `SELECT ` + providerWithUserColumns + providerJoin
)

const providerJoin = ` FROM providers p JOIN users u ON u.id = p.user_id`

func (s *PostgresStore) GetProvider(ctx context.Context, id string) (models.Provider, error) {
	var p models.Provider
	if err := s.db.GetContext(ctx, &p, selectProvider+` WHERE p.id = $1`, id); err != nil {
		return models.Provider{}, fmt.Errorf("get provider: %w", mapError(err))
	}
	return p, nil
}

func (s *PostgresStore) GetProviderByUserID(ctx context.Context, userID string) (models.Provider, error) {
	var p models.Provider
	if err := s.db.GetContext(ctx, &p, selectProvider+` WHERE p.user_id = $1`, userID); err != nil {
		return models.Provider{}, fmt.Errorf("get provider by user: %w", mapError(err))
	}
	return p, nil
}

// CreateProvider inserts the profile, links its categories and promotes the
// owning user to the provider role in one transaction.
func (s *PostgresStore) CreateProvider(ctx context.Context, p models.Provider, categoryIDs []string) (models.Provider, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = timestamp(s.now())
	p.TotalRatings = 0
	p.AverageRating = 0

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO providers (id, user_id, description, hourly_rate, city, whatsapp, facebook,
				is_verified, is_online, total_ratings, average_rating, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0, $10)
		`, p.ID, p.UserID, p.Description, p.HourlyRate, p.City, p.WhatsApp, p.Facebook,
			p.IsVerified, p.IsOnline, p.CreatedAt)
		if err != nil {
			return err
		}
		for _, categoryID := range categoryIDs {
			if err := linkCategory(ctx, tx, p.ID, categoryID); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `UPDATE users SET role = $2 WHERE id = $1`, p.UserID, models.RoleProvider)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return models.Provider{}, fmt.Errorf("create provider: %w", mapError(err))
	}
	return p, nil
}

func (s *PostgresStore) UpdateProvider(ctx context.Context, id string, upd models.ProviderUpdate) (models.Provider, error) {
	var p models.Provider
	err := s.db.GetContext(ctx, &p, `
		UPDATE providers SET
			description = COALESCE($2, description),
			hourly_rate = COALESCE($3, hourly_rate),
			city = COALESCE($4, city),
			whatsapp = COALESCE($5, whatsapp),
			facebook = COALESCE($6, facebook),
			is_online = COALESCE($7, is_online)
		WHERE id = $1
		RETURNING `+columns("providers", providerFields),
		id, upd.Description, upd.HourlyRate, upd.City, upd.WhatsApp, upd.Facebook, upd.IsOnline)
	if err != nil {
		return models.Provider{}, fmt.Errorf("update provider: %w", mapError(err))
	}
	return p, nil
}

func (s *PostgresStore) SetProviderVerified(ctx context.Context, id string, verified bool) (models.Provider, error) {
	var p models.Provider
	err := s.db.GetContext(ctx, &p, `
		UPDATE providers SET is_verified = $2 WHERE id = $1
		RETURNING `+columns("providers", providerFields), id, verified)
	if err != nil {
		return models.Provider{}, fmt.Errorf("verify provider: %w", mapError(err))
	}
	return p, nil
}

// providerWhere builds the WHERE clause for a listing filter. Placeholders
// are numbered from 1 and args holds their values in order.
func providerWhere(f models.ProviderFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.CategoryID != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM provider_categories pc
			WHERE pc.provider_id = p.id AND pc.category_id = `+arg(f.CategoryID)+`)`)
	}
	if f.City != "" {
		conds = append(conds, `p.city ILIKE `+arg(likePattern(f.City)))
	}
	if f.MinRating != nil {
		conds = append(conds, `p.average_rating >= `+arg(*f.MinRating))
	}
	if f.MaxPrice != nil {
		conds = append(conds, `COALESCE(p.hourly_rate, 0) <= `+arg(*f.MaxPrice))
	}
	if f.Search != "" {
		pattern := arg(likePattern(f.Search))
		conds = append(conds, `(u.name ILIKE `+pattern+`
			OR p.description ILIKE `+pattern+`
			OR EXISTS (SELECT 1 FROM provider_categories pc
				JOIN categories c ON c.id = pc.category_id
				WHERE pc.provider_id = p.id AND c.name ILIKE `+pattern+`))`)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func providerOrder(sort string) string {
	switch sort {
	case models.SortByPrice:
		return ` ORDER BY p.hourly_rate ASC NULLS LAST, p.created_at ASC, p.id ASC`
	case models.SortByName:
		return ` ORDER BY LOWER(u.name) ASC, p.id ASC`
	default:
		return ` ORDER BY p.average_rating DESC, p.total_ratings DESC, p.created_at ASC, p.id ASC`
	}
}

type providerListRow struct {
	models.ProviderWithUser
	TotalCount int `db:"total_count"`
}

// ListProviders returns one page of providers matching f and the total number
// of matches before pagination.
func (s *PostgresStore) ListProviders(ctx context.Context, f models.ProviderFilter) ([]models.ProviderSummary, int, error) {
	f = f.Normalize()
	where, args := providerWhere(f)
	n := len(args)
	query := `SELECT ` + providerWithUserColumns + `, COUNT(*) OVER() AS total_count` + providerJoin +
		where + providerOrder(f.Sort) + fmt.Sprintf(` LIMIT $%d OFFSET $%d`, n+1, n+2)

	var rows []providerListRow
	if err := s.db.SelectContext(ctx, &rows, query, append(args, f.Limit, f.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("list providers: %w", mapError(err))
	}

	total := 0
	if len(rows) > 0 {
		total = rows[0].TotalCount
	} else if f.Offset > 0 {
		// Past the last page the window count is unavailable.
		countQuery := `SELECT COUNT(*)` + providerJoin + where
		if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
			return nil, 0, fmt.Errorf("count providers: %w", mapError(err))
		}
	}

	out := make([]models.ProviderSummary, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		out[i] = models.ProviderSummary{Provider: row.Provider, User: row.User, Categories: []models.Category{}}
		ids[i] = row.ID
	}
	if len(ids) == 0 {
		return out, total, nil
	}

	byProvider, err := s.categoriesFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		if cats, ok := byProvider[out[i].ID]; ok {
			out[i].Categories = cats
		}
	}
	return out, total, nil
}

type providerCategoryRow struct {
	ProviderID string `db:"provider_id"`
	models.Category
}

// categoriesFor loads the categories of several providers in one query.
func (s *PostgresStore) categoriesFor(ctx context.Context, providerIDs []string) (map[string][]models.Category, error) {
	var rows []providerCategoryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT pc.provider_id, `+columns("c", categoryFields)+`
		FROM provider_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.provider_id = ANY($1)
		ORDER BY c.name ASC
	`, pq.Array(providerIDs))
	if err != nil {
		return nil, fmt.Errorf("list provider categories: %w", mapError(err))
	}
	out := make(map[string][]models.Category, len(providerIDs))
	for _, row := range rows {
		out[row.ProviderID] = append(out[row.ProviderID], row.Category)
	}
	return out, nil
}

func (s *PostgresStore) GetProviderDetails(ctx context.Context, id string) (models.ProviderDetails, error) {
	var row models.ProviderWithUser
	if err := s.db.GetContext(ctx, &row, selectProviderWithUser+` WHERE p.id = $1`, id); err != nil {
		return models.ProviderDetails{}, fmt.Errorf("get provider details: %w", mapError(err))
	}

	byProvider, err := s.categoriesFor(ctx, []string{id})
	if err != nil {
		return models.ProviderDetails{}, err
	}
	services, err := s.ListServices(ctx, id)
	if err != nil {
		return models.ProviderDetails{}, err
	}
	reviews, err := s.ListReviews(ctx, id)
	if err != nil {
		return models.ProviderDetails{}, err
	}

	details := models.ProviderDetails{
		Provider:   row.Provider,
		User:       row.User,
		Categories: byProvider[id],
		Services:   services,
		Reviews:    reviews,
	}
	if details.Categories == nil {
		details.Categories = []models.Category{}
	}
	return details, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.SelectContext(ctx, &categories, `SELECT `+columns("c", categoryFields)+` FROM categories c ORDER BY c.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", mapError(err))
	}
	return categories, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	c.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, icon, description) VALUES ($1, $2, $3, $4)
	`, c.ID, c.Name, c.Icon, c.Description)
	if err != nil {
		return models.Category{}, fmt.Errorf("create category: %w", mapError(err))
	}
	return c, nil
}

func linkCategory(ctx context.Context, ex sqlx.ExecerContext, providerID, categoryID string) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO provider_categories (provider_id, category_id) VALUES ($1, $2)
		ON CONFLICT (provider_id, category_id) DO NOTHING
	`, providerID, categoryID)
	return err
}

func (s *PostgresStore) AddProviderCategory(ctx context.Context, providerID, categoryID string) error {
	if err := linkCategory(ctx, s.db, providerID, categoryID); err != nil {
		return fmt.Errorf("add provider category: %w", mapError(err))
	}
	return nil
}

func (s *PostgresStore) RemoveProviderCategory(ctx context.Context, providerID, categoryID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM provider_categories WHERE provider_id = $1 AND category_id = $2
	`, providerID, categoryID)
	if err != nil {
		return fmt.Errorf("remove provider category: %w", mapError(err))
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("remove provider category: %w", err)
	}
	return nil
}
