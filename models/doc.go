// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

JSON field names are camelCase to match the mobile client.

# Domain Types

  - User: account (password hash never serialized)
  - Provider: professional profile linked 1:1 to a User
  - Category, Service, Review
  - Conversation, Message: polled client-provider chat
  - Favorite: bookmark of a provider
  - ServiceOrder: booking with a status

Composite views (ProviderSummary, ProviderDetails, ConversationSummary,
FavoriteWithProvider, OrderDetails) embed the base type and add joined
records.

# Request Types

Requests with non-trivial rules have a Validate method that normalizes the
request in place and returns a *ValidationError:

	var req models.CreateServiceRequest
	if err := req.Validate(); err != nil { ... }

# Order Status

Orders move through:

	pending -> accepted -> in_progress -> completed
	pending -> rejected
	pending|accepted|in_progress -> cancelled

Use CanTransition to check a move and ClientMayTransition for the client
side of an order.
*/
package models
