// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

	-p, --port           PORT              Server port (default 3318)
	-d, --database-url   DATABASE_URL      PostgreSQL connection string
	-t, --database-type  DATABASE_TYPE     postgres (default) or memory
	--jwt-secret         JWT_SECRET        HS256 secret, at least 32 bytes
	--token-ttl          TOKEN_TTL         Access token lifetime (default 168h)
	--admin-key          ADMIN_KEY         Enables admin routes when set
	--bcrypt-cost        BCRYPT_COST       bcrypt cost (default 10)
	--rate-limit         RATE_LIMIT_RPS    Requests/s per client, 0 disables (default 20)
	--rate-burst         RATE_LIMIT_BURST  Burst size (default 40)
	--reset-ttl          RESET_TOKEN_TTL   Password reset lifetime (default 1h)
	--seed               SEED_DEMO_DATA    Seed demo data on start
	--log-level          LOG_LEVEL         debug, info, warn, error
	--env-file                             .env file to load (default .env)

CLI flags take precedence over environment variables. Variables from the
.env file never override ones already set in the process environment. A
missing default .env is ignored; a missing explicit --env-file is an error.

# Validation

ParseFlags returns an error if:

  - DATABASE_URL is missing with the postgres backend
  - JWT_SECRET is missing or shorter than 32 bytes
  - a numeric or duration value does not parse or is out of range
*/
package cliparse
