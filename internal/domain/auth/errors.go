package auth

import "errors"

// Caller identity errors, raised before any leave operation runs.
var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrMissingClaims  = errors.New("token is missing identity claims")
	ErrUnknownRole    = errors.New("token carries an unknown role")
	ErrRoleNotAllowed = errors.New("role is not allowed to use this endpoint")
)
