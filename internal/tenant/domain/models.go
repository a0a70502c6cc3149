// Package domain contains persistence models for tenant records and their
// property associations.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tenant is a pre-existing tenant identity record created by an owner. It is
// unbound until a caller account claims it, at which point UserID is set.
type Tenant struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	PropertyID snowflake.ID  `gorm:"not null;index" json:"property_id"`
	Name       string        `gorm:"type:text;not null" json:"name"`
	Email      string        `gorm:"type:text;not null" json:"email"`
	Phone      string        `gorm:"type:text" json:"phone,omitempty"`
	UserID     *snowflake.ID `gorm:"index" json:"user_id,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

// PropertyTenant records a tenant's membership in a property. Existence of a
// row is what membership means.
type PropertyTenant struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	PropertyID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_property_tenant,priority:1" json:"property_id"`
	TenantID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_property_tenant,priority:2" json:"tenant_id"`
	UnitNumber string       `gorm:"type:text" json:"unit_number,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PropertyTenant) TableName() string { return "property_tenants" }

var (
	ErrNotFound = errors.New("tenant_not_found")
	// ErrAmbiguousTenant reports more than one unassigned tenant record for
	// a property. That is a data-integrity condition, never a reason to
	// guess.
	ErrAmbiguousTenant = errors.New("ambiguous_tenant")
	// ErrIdentityConflict reports a tenant record already bound to a
	// different user. A hard stop, the binding is never overwritten.
	ErrIdentityConflict = errors.New("identity_conflict")
)
