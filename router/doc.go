// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the ServiçoJá API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(storage, cfg, router.Deps{Tokens: issuer})

Every API route is wrapped in middleware.WithLogging. Routes marked (auth)
also pass through Authenticator.Require; routes marked (admin) need the
X-Admin-Key header and answer 403 when no admin key is configured.

# Endpoints

Operational:

	GET /health  - Liveness
	GET /ready   - Storage ping
	GET /metrics - Prometheus metrics

Authentication:

	POST /api/auth/register        - Create account, returns token
	POST /api/auth/login           - Exchange credentials for a token
	GET  /api/auth/me              - Current user and provider profile (auth)
	POST /api/auth/forgot-password - Issue a reset token
	POST /api/auth/reset-password  - Set a new password with a reset token

Catalogue:

	GET  /api/categories                                - List categories
	POST /api/categories                                - Create category (admin)
	GET  /api/providers                                 - Search providers
	POST /api/providers                                 - Create own profile (auth)
	GET  /api/providers/{id}                            - Profile with services and reviews
	PUT  /api/providers/{id}                            - Update own profile (auth)
	PUT  /api/providers/{id}/verify                     - Set verified flag (admin)
	POST /api/providers/{id}/categories                 - Link category (auth)
	DELETE /api/providers/{id}/categories/{categoryId}  - Unlink category (auth)
	GET  /api/providers/{id}/services                   - List services
	GET  /api/providers/{id}/reviews                    - List reviews
	POST /api/services                                  - Create service (auth)
	PUT  /api/services/{id}                             - Update service (auth)
	DELETE /api/services/{id}                           - Delete service (auth)

Activity (all auth):

	GET/PUT /api/users/{id}
	POST    /api/reviews
	GET     /api/conversations
	POST    /api/conversations
	GET     /api/conversations/{id}/messages?after=
	POST    /api/conversations/{id}/read
	POST    /api/messages
	GET/POST/DELETE /api/favorites
	GET     /api/favorites/check?providerId=
	GET     /api/orders?as=client|provider
	POST    /api/orders
	GET     /api/orders/{id}
	PATCH   /api/orders/{id}/status
*/
package router
