package domain

import "errors"

var (
	ErrInvalidToken    = errors.New("invalid_token")
	ErrExpired         = errors.New("invitation_expired")
	ErrAlreadyResolved = errors.New("already_resolved")
	ErrPendingExists   = errors.New("pending_invitation_exists")
	ErrForbidden       = errors.New("forbidden")
	ErrStatusConflict  = errors.New("status_conflict")

	ErrPropertyRequired = errors.New("property_id is required")
	ErrTenantRequired   = errors.New("tenant_id is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrTokenRequired    = errors.New("token is required")
)
