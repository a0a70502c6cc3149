package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/homelet/tenantlink/internal/property/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Property, error) {
	var property domain.Property
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, owner_user_id, name, address, type, contact_email, created_at, updated_at
		 FROM properties WHERE id = ?`,
		id,
	).Scan(&property).Error
	if err != nil {
		return nil, err
	}
	if property.ID == 0 {
		return nil, domain.ErrNotFound
	}
	return &property, nil
}

func (r *repository) IsOwner(ctx context.Context, userID, propertyID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM properties WHERE id = ? AND owner_user_id = ?`,
		propertyID,
		userID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
