// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the ServiçoJá API.

# Handler Types

Each handler is a struct over a store.Storage:

  - AuthHandler: Registration, login, current user and password resets
  - UserHandler: Profile lookup and self-service updates
  - CategoryHandler: Category listing and admin creation
  - ProviderHandler: Provider search, profiles, categories, services and reviews
  - ServiceHandler: A provider's catalogue of services
  - ReviewHandler: Client reviews and rating aggregates
  - ConversationHandler: Client and provider chat
  - FavoriteHandler: Bookmarked providers
  - OrderHandler: Service orders and their status changes

Handlers are created via constructor functions:

	providers := handlers.NewProviderHandler(storage)
	authHandler := handlers.NewAuthHandler(storage, cfg, tokens, handlers.LogResetSender{})

# Identity

Authenticated handlers read the caller from the request context populated by
middleware.Authenticator. Legacy body and query fields naming a user
(userId, clientId, senderId) are accepted only when they match the caller.
Ownership of providers, services, conversations and orders is always checked
against the store, never against the role claim in the token, so a client
who creates a provider profile can use it without logging in again.

# Order Lifecycle

	pending → accepted | rejected | cancelled
	accepted → in_progress | cancelled
	in_progress → completed | cancelled

The provider drives the order; the client may only cancel. Illegal moves and
concurrent changes are reported as 409.

# Errors

Every error body is {"error": <status text>, "message": <detail>}. Storage
sentinels map to 404 (store.ErrNotFound), 409 (store.ErrConflict) and 400
(store.ErrInvalidReference); anything else is logged and returned as a bare
500.
*/
package handlers
