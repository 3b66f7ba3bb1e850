// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
DropSchema removes everything and exists for local resets.

# Tables

  - users: Accounts (clients and providers), unique email
  - password_resets: Hashed single-use reset tokens
  - providers: Provider profile, one per user
  - categories: Service categories, unique name
  - provider_categories: Provider to category links
  - services: Services offered by a provider
  - service_orders: Hiring requests with a status
  - reviews: Ratings left by clients, at most one per order
  - conversations: One per (client, provider) pair
  - messages: Chat messages in a conversation
  - favorites: User bookmarks of providers

# Relationships

	users 1──1 providers
	providers *──* categories (via provider_categories)
	providers 1──* services
	providers 1──* reviews *──1 users
	conversations 1──* messages
	users *──* providers (via favorites)
	service_orders *──1 services (nullable)

All foreign keys use ON DELETE CASCADE. Optional references
(services.category_id, service_orders.service_id, reviews.order_id) are
set to NULL instead.
*/
package db
