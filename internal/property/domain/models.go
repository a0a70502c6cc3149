// Package domain contains persistence models for the property service.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Property represents a rental property managed by an owner account.
type Property struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerUserID  snowflake.ID `gorm:"not null;index" json:"owner_user_id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Address      string       `gorm:"type:text;not null" json:"address"`
	Type         string       `gorm:"type:text" json:"type"`
	ContactEmail string       `gorm:"type:text;column:contact_email" json:"contact_email"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Property) TableName() string { return "properties" }

type Repository interface {
	GetByID(ctx context.Context, id snowflake.ID) (*Property, error)
	IsOwner(ctx context.Context, userID, propertyID snowflake.ID) (bool, error)
}

var ErrNotFound = errors.New("property_not_found")

// IsNotFound unwraps the repository's not-found conditions.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
