package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type SendRequest struct {
	PropertyID snowflake.ID `json:"property_id"`
	TenantID   snowflake.ID `json:"tenant_id"`
	Email      string       `json:"email"`

	// Resend expires the current pending invitation, if any, and issues
	// a fresh token in its place.
	Resend bool `json:"resend"`
}

type SendResponse struct {
	Invitation *Invitation `json:"invitation"`

	// Delivered is false when the invitation was stored but the email
	// could not be sent. The token stays valid either way.
	Delivered bool `json:"delivered"`
}

// Summary is the redacted view returned to whoever holds a token. It
// carries enough for the invitee to recognize the property and confirm
// the tenant identity, and nothing that identifies the owner account.
type Summary struct {
	PropertyName    string    `json:"property_name"`
	PropertyAddress string    `json:"property_address"`
	PropertyType    string    `json:"property_type"`
	TenantName      string    `json:"tenant_name"`
	TenantEmail     string    `json:"tenant_email"`
	TenantPhone     string    `json:"tenant_phone,omitempty"`
	OwnerContact    string    `json:"owner_contact,omitempty"`
	Status          Status    `json:"status"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// AcceptResponse is only returned once linking succeeded; a linking
// failure after acceptance surfaces as an error and the caller retries.
type AcceptResponse struct {
	Invitation *Invitation  `json:"invitation"`
	TenantID   snowflake.ID `json:"tenant_id"`
	PropertyID snowflake.ID `json:"property_id"`
}

// Service coordinates the invitation lifecycle.
type Service interface {
	Send(ctx context.Context, callerUserID snowflake.ID, req SendRequest) (*SendResponse, error)
	Verify(ctx context.Context, token string) (*Summary, error)
	Accept(ctx context.Context, callerUserID snowflake.ID, token string) (*AcceptResponse, error)
	Decline(ctx context.Context, token string) (*Invitation, error)
	ListByProperty(ctx context.Context, callerUserID, propertyID snowflake.ID) ([]Invitation, error)
}
