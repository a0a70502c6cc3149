package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	GetByID(ctx context.Context, id snowflake.ID) (*Tenant, error)

	// AssignUser binds the tenant record to userID. The write is conditional:
	// it succeeds only while user_id is unset or already equal to userID, so
	// concurrent claimers cannot overwrite each other. Returns
	// ErrIdentityConflict when the record is bound to a different user.
	AssignUser(ctx context.Context, tenantID, userID snowflake.ID) error

	// FindUnassignedByProperty returns the single tenant record for the
	// property with no bound user. ErrNotFound when none exist,
	// ErrAmbiguousTenant when more than one does.
	FindUnassignedByProperty(ctx context.Context, propertyID snowflake.ID) (*Tenant, error)

	// EnsureAssociation guarantees a property_tenants row exists for the
	// pair. Already-exists is success, never a duplicate error.
	EnsureAssociation(ctx context.Context, propertyID, tenantID snowflake.ID, unitNumber string) error

	CountAssociations(ctx context.Context, propertyID, tenantID snowflake.ID) (int64, error)
}
