// Package domain contains the invitation record and its lifecycle states.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
)

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined || s == StatusExpired
}

// Invitation authorizes one tenant identity to be linked to one caller
// account for one property. Rows are retained indefinitely as audit records.
type Invitation struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	PropertyID  snowflake.ID `gorm:"not null;index:ix_invitations_property" json:"property_id"`
	TenantID    snowflake.ID `gorm:"not null;index:ix_invitations_tenant" json:"tenant_id"`
	OwnerUserID snowflake.ID `gorm:"not null;index" json:"owner_user_id"`
	Email       string       `gorm:"type:text;not null" json:"email"`
	Token       string       `gorm:"type:text;not null;uniqueIndex:ux_invitations_token" json:"-"`
	Status      Status       `gorm:"type:text;not null" json:"status"`
	ExpiresAt   time.Time    `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invitation) TableName() string { return "invitations" }
