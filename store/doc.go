// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the data access layer.

Storage is implemented twice:

  - PostgresStore: sqlx over lib/pq, the production backend
  - MemoryStore: mutex-guarded maps for DATABASE_TYPE=memory and tests

Both return the same sentinel errors, matched with errors.Is:

	p, err := s.GetProvider(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		// 404
	}

ErrConflict covers unique violations (duplicate email, second provider
profile, second review of an order) and stale order status updates.
ErrInvalidReference covers foreign keys that point nowhere.

# Provider listing

ListProviders filters by category, city (case-insensitive substring),
minimum rating, maximum hourly rate (unset rates count as 0) and a free
text search over the provider's name, description and category names.
Results are sorted by rating (default), price (unset last) or name, and
the total before pagination is returned alongside the page.

# Ratings

CreateReview recomputes the provider's totalRatings and averageRating
(mean rounded to one decimal) together with the insert.
*/
package store
