// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing, access tokens, and reset tokens.

# Passwords

Passwords are hashed with bcrypt:

	hash, err := auth.HashPassword(password, cfg.BcryptCost)
	err = auth.CheckPassword(hash, password) // ErrPasswordMismatch on failure

# Access Tokens

Access tokens are HS256 JWTs whose subject is the user ID:

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	token, expiresAt, err := issuer.Issue(user)
	claims, err := issuer.Parse(token)

Parse only accepts HS256, requires an expiry and checks the issuer.

# Password Reset Tokens

Reset tokens are random 32-byte secrets, URL-safe base64 encoded:

	token, err := auth.GenerateResetToken()
	hash := auth.HashResetToken(token)

Only the SHA-256 hash is stored; the token is delivered to the user.

# Admin Keys

Admin endpoints compare the X-Admin-Key header in constant time:

	err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKey)

An empty configured key rejects every request.
*/
package auth
