package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrTenantRequired   = errors.New("tenant_id is required")
	ErrUserRequired     = errors.New("user_id is required")
	ErrPropertyRequired = errors.New("property_id is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrNameRequired     = errors.New("name is required")
)

type LinkResult struct {
	TenantID   snowflake.ID `json:"tenant_id"`
	PropertyID snowflake.ID `json:"property_id"`
}

// Service binds caller accounts to tenant records.
type Service interface {
	// Link binds userID to the tenant record and guarantees the
	// property association exists. Idempotent: repeating a successful
	// call is a no-op success.
	Link(ctx context.Context, tenantID, userID snowflake.ID) (*LinkResult, error)

	// VerifyPropertyLink is the tokenless path: match the caller's
	// claim against the property's unassigned tenant record, then link.
	VerifyPropertyLink(ctx context.Context, callerUserID, propertyID snowflake.ID, claim Claim) (*LinkResult, error)
}
