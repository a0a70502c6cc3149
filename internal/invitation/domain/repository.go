package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Repository persists invitations.
type Repository interface {
	// Create inserts inv. When supersede is true any pending invitation
	// for the same (property, tenant) pair is marked expired in the same
	// transaction before the insert.
	Create(ctx context.Context, inv *Invitation, supersede bool) error

	FindByToken(ctx context.Context, token string) (*Invitation, error)

	// FindPending returns the pending invitation for the pair, or
	// ErrInvalidToken when none exists.
	FindPending(ctx context.Context, propertyID, tenantID snowflake.ID) (*Invitation, error)

	// TransitionStatus moves an invitation from one status to another.
	// The update is conditional on the current status so concurrent
	// resolvers cannot both win. Returns ErrStatusConflict when the row
	// was no longer in the expected status.
	TransitionStatus(ctx context.Context, id snowflake.ID, from, to Status) error

	ListByProperty(ctx context.Context, propertyID snowflake.ID) ([]Invitation, error)

	// ExpireOverdue marks pending invitations whose deadline has passed
	// as expired and reports how many rows changed.
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int64, error)
}
