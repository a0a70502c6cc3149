package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/homelet/tenantlink/internal/tenant/domain"
	dbpkg "github.com/homelet/tenantlink/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewRepository(db *gorm.DB, genID *snowflake.Node) domain.Repository {
	return &repository{db: db, genID: genID}
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, property_id, name, email, phone, user_id, created_at, updated_at
		 FROM tenants WHERE id = ?`,
		id,
	).Scan(&tenant).Error
	if err != nil {
		return nil, err
	}
	if tenant.ID == 0 {
		return nil, domain.ErrNotFound
	}
	return &tenant, nil
}

func (r *repository) AssignUser(ctx context.Context, tenantID, userID snowflake.ID) error {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE tenants SET user_id = ?, updated_at = ?
		 WHERE id = ? AND (user_id IS NULL OR user_id = ?)`,
		userID,
		time.Now().UTC(),
		tenantID,
		userID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// No row matched: either the tenant does not exist or it is bound to a
	// different user. Re-read to tell the two apart.
	tenant, err := r.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant.UserID != nil && *tenant.UserID != userID {
		return domain.ErrIdentityConflict
	}
	return nil
}

func (r *repository) FindUnassignedByProperty(ctx context.Context, propertyID snowflake.ID) (*domain.Tenant, error) {
	var tenants []domain.Tenant
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, property_id, name, email, phone, user_id, created_at, updated_at
		 FROM tenants WHERE property_id = ? AND user_id IS NULL LIMIT 2`,
		propertyID,
	).Scan(&tenants).Error
	if err != nil {
		return nil, err
	}

	switch len(tenants) {
	case 0:
		return nil, domain.ErrNotFound
	case 1:
		return &tenants[0], nil
	default:
		return nil, domain.ErrAmbiguousTenant
	}
}

func (r *repository) EnsureAssociation(ctx context.Context, propertyID, tenantID snowflake.ID, unitNumber string) error {
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO property_tenants (id, property_id, tenant_id, unit_number, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.genID.Generate(),
		propertyID,
		tenantID,
		unitNumber,
		time.Now().UTC(),
	).Error
	if err != nil && dbpkg.IsDuplicateKeyErr(err) {
		return nil
	}
	return err
}

func (r *repository) CountAssociations(ctx context.Context, propertyID, tenantID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM property_tenants WHERE property_id = ? AND tenant_id = ?`,
		propertyID,
		tenantID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
