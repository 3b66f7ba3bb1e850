// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/danielhkuo/servicoja/models"
)

var (
	selectOrder = `SELECT ` + columns("o", orderFields) + ` FROM service_orders o`

	selectOrderDetails = `
		SELECT ` + columns("o", orderFields) + `,
			` + nested("p", "provider", providerFields) + `,
			` + nested("pu", "provider.user", userFields) + `,
			` + nested("cu", "client", userFields) + `
		FROM service_orders o
		JOIN providers p ON p.id = o.provider_id
		JOIN users pu ON pu.id = p.user_id
		JOIN users cu ON cu.id = o.client_id`
)

func (s *PostgresStore) CreateOrder(ctx context.Context, o models.ServiceOrder) (models.ServiceOrder, error) {
	o.ID = uuid.NewString()
	o.CreatedAt = timestamp(s.now())
	o.CompletedDate = nil
	if o.Status == "" {
		o.Status = models.OrderPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_orders (id, client_id, provider_id, service_id, status, scheduled_date,
			price, notes, client_notes, provider_notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, o.ID, o.ClientID, o.ProviderID, o.ServiceID, o.Status, o.ScheduledDate,
		o.Price, o.Notes, o.ClientNotes, o.ProviderNotes, o.CreatedAt)
	if err != nil {
		return models.ServiceOrder{}, fmt.Errorf("create order: %w", mapError(err))
	}
	return o, nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (models.ServiceOrder, error) {
	var o models.ServiceOrder
	if err := s.db.GetContext(ctx, &o, selectOrder+` WHERE o.id = $1`, id); err != nil {
		return models.ServiceOrder{}, fmt.Errorf("get order: %w", mapError(err))
	}
	return o, nil
}

func (s *PostgresStore) GetOrderDetails(ctx context.Context, id string) (models.OrderDetails, error) {
	orders, err := s.listOrderDetails(ctx, ` WHERE o.id = $1`, id)
	if err != nil {
		return models.OrderDetails{}, fmt.Errorf("get order details: %w", err)
	}
	if len(orders) == 0 {
		return models.OrderDetails{}, fmt.Errorf("get order details: %w", ErrNotFound)
	}
	return orders[0], nil
}

func (s *PostgresStore) ListOrdersByClient(ctx context.Context, clientID string) ([]models.OrderDetails, error) {
	orders, err := s.listOrderDetails(ctx, ` WHERE o.client_id = $1`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list client orders: %w", err)
	}
	return orders, nil
}

func (s *PostgresStore) ListOrdersByProvider(ctx context.Context, providerID string) ([]models.OrderDetails, error) {
	orders, err := s.listOrderDetails(ctx, ` WHERE o.provider_id = $1`, providerID)
	if err != nil {
		return nil, fmt.Errorf("list provider orders: %w", err)
	}
	return orders, nil
}

// listOrderDetails loads orders newest first and attaches their services.
// Services are fetched separately because the reference is nullable.
func (s *PostgresStore) listOrderDetails(ctx context.Context, where string, arg string) ([]models.OrderDetails, error) {
	orders := []models.OrderDetails{}
	query := selectOrderDetails + where + ` ORDER BY o.created_at DESC, o.id DESC`
	if err := s.db.SelectContext(ctx, &orders, query, arg); err != nil {
		return nil, mapError(err)
	}

	var serviceIDs []string
	for _, o := range orders {
		if o.ServiceID != nil {
			serviceIDs = append(serviceIDs, *o.ServiceID)
		}
	}
	if len(serviceIDs) == 0 {
		return orders, nil
	}

	var services []models.Service
	if err := s.db.SelectContext(ctx, &services, selectService+` WHERE s.id = ANY($1)`, pq.Array(serviceIDs)); err != nil {
		return nil, mapError(err)
	}
	byID := make(map[string]models.Service, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}
	for i := range orders {
		if orders[i].ServiceID == nil {
			continue
		}
		if svc, ok := byID[*orders[i].ServiceID]; ok {
			orders[i].Service = &svc
		}
	}
	return orders, nil
}

// UpdateOrderStatus moves an order from one status to another. The update
// only applies while the stored status still equals from; otherwise it
// returns ErrConflict, or ErrNotFound when the order does not exist.
func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, id, from, to string, providerNotes *string, at time.Time) (models.ServiceOrder, error) {
	var completed *time.Time
	if to == models.OrderCompleted {
		t := timestamp(at)
		completed = &t
	}

	var o models.ServiceOrder
	err := s.db.GetContext(ctx, &o, `
		UPDATE service_orders SET
			status = $3,
			provider_notes = COALESCE($4, provider_notes),
			completed_date = COALESCE($5, completed_date)
		WHERE id = $1 AND status = $2
		RETURNING `+columns("service_orders", orderFields),
		id, from, to, providerNotes, completed)
	if err == nil {
		return o, nil
	}
	err = mapError(err)
	if !errors.Is(err, ErrNotFound) {
		return models.ServiceOrder{}, fmt.Errorf("update order status: %w", err)
	}

	if _, getErr := s.GetOrder(ctx, id); getErr != nil {
		return models.ServiceOrder{}, fmt.Errorf("update order status: %w", getErr)
	}
	return models.ServiceOrder{}, fmt.Errorf("update order status: %w: status is no longer %s", ErrConflict, from)
}
