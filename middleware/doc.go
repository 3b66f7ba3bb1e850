// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request completion (method, path, status, duration_ms). 5xx responses
are logged at error level.

# Authentication

Routes that need a user are wrapped with an Authenticator built around the
JWT issuer:

	authn := middleware.NewAuthenticator(issuer)
	mux.HandleFunc("GET /api/auth/me", authn.Require(h.Me))

Handlers read the caller with middleware.UserID(r.Context()). Identify
attaches claims without rejecting, so downstream middleware can key on the
user. Operator routes use RequireAdmin with the X-Admin-Key header.

# Rate Limiting

RateLimiter keeps a token bucket per user (or per IP for anonymous
requests) and answers 429 with Retry-After when it is empty:

	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateBurst)
	go rl.Run(ctx, time.Minute)
	handler = rl.Middleware(handler)

Run evicts idle buckets until ctx is cancelled.

# CORS Middleware

Enable cross-origin requests for the mobile and web clients:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows GET, POST, PUT, PATCH, DELETE, OPTIONS with headers Content-Type,
Authorization and X-Admin-Key, and exposes X-Total-Count.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies (1 MiB limit):

	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
