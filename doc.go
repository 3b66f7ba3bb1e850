// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the ServiçoJá API server.

ServiçoJá is a marketplace where clients find local service providers
(electricians, cleaners, tutors and so on), chat with them, hire them through
orders and leave reviews once the work is done.

# Starting the Server

	DATABASE_URL=postgres://... JWT_SECRET=... go run .

Or without PostgreSQL, with demo data:

	go run . -t memory --seed --jwt-secret "$(openssl rand -hex 32)"

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string (postgres storage only)
  - JWT_SECRET (--jwt-secret): HS256 signing secret, at least 32 bytes

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): postgres or memory (default: postgres)
  - ADMIN_KEY (--admin-key): enables category creation and provider verification
  - TOKEN_TTL, RESET_TOKEN_TTL, BCRYPT_COST
  - RATE_LIMIT_RPS, RATE_LIMIT_BURST: per-client token bucket (0 disables)
  - SEED_DEMO_DATA (--seed): load the demo marketplace into an empty store
  - LOG_LEVEL: debug, info, warn or error

A .env file in the working directory is read if present.

# Architecture

  - handlers: HTTP request handlers (auth, users, providers, services, chat, orders)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, authentication, rate limiting, JSON helpers
  - store: Storage interface with PostgreSQL and in-memory implementations
  - models: Domain, request and response types
  - auth: Password hashing, JWTs and reset tokens
  - metrics: Prometheus collectors served on /metrics
  - seed: Demo data
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
