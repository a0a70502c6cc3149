package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/homelet/tenantlink/internal/clock"
	"github.com/homelet/tenantlink/internal/invitation/domain"
	dbpkg "github.com/homelet/tenantlink/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewRepository(db *gorm.DB, clk clock.Clock) domain.Repository {
	return &repository{db: db, clock: clk}
}

func (r *repository) Create(ctx context.Context, inv *domain.Invitation, supersede bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if supersede {
			if err := tx.Exec(
				`UPDATE invitations SET status = ?, updated_at = ?
				 WHERE property_id = ? AND tenant_id = ? AND status = ?`,
				domain.StatusExpired,
				r.clock.Now(),
				inv.PropertyID,
				inv.TenantID,
				domain.StatusPending,
			).Error; err != nil {
				return err
			}
		} else {
			var count int64
			if err := tx.Raw(
				`SELECT COUNT(1) FROM invitations
				 WHERE property_id = ? AND tenant_id = ? AND status = ?`,
				inv.PropertyID,
				inv.TenantID,
				domain.StatusPending,
			).Scan(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return domain.ErrPendingExists
			}
		}

		err := tx.Exec(
			`INSERT INTO invitations (id, property_id, tenant_id, owner_user_id, email, token, status, expires_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID,
			inv.PropertyID,
			inv.TenantID,
			inv.OwnerUserID,
			inv.Email,
			inv.Token,
			inv.Status,
			inv.ExpiresAt,
			inv.CreatedAt,
			inv.UpdatedAt,
		).Error
		// A concurrent creator can slip past the pending check and lose
		// the race at the ux_invitations_pair_pending index instead.
		if dbpkg.IsDuplicateKeyErr(err) {
			return domain.ErrPendingExists
		}
		return err
	})
}

func (r *repository) FindByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, property_id, tenant_id, owner_user_id, email, token, status, expires_at, created_at, updated_at
		 FROM invitations WHERE token = ?`,
		token,
	).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, domain.ErrInvalidToken
	}
	return &inv, nil
}

func (r *repository) FindPending(ctx context.Context, propertyID, tenantID snowflake.ID) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, property_id, tenant_id, owner_user_id, email, token, status, expires_at, created_at, updated_at
		 FROM invitations WHERE property_id = ? AND tenant_id = ? AND status = ?`,
		propertyID,
		tenantID,
		domain.StatusPending,
	).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, domain.ErrInvalidToken
	}
	return &inv, nil
}

func (r *repository) TransitionStatus(ctx context.Context, id snowflake.ID, from, to domain.Status) error {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		to,
		r.clock.Now(),
		id,
		from,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStatusConflict
	}
	return nil
}

// listPageSize caps the audit listing. A single property never accumulates
// more rows than this within any window an owner would review.
const listPageSize = 200

func (r *repository) ListByProperty(ctx context.Context, propertyID snowflake.ID) ([]domain.Invitation, error) {
	var invs []domain.Invitation
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, property_id, tenant_id, owner_user_id, email, token, status, expires_at, created_at, updated_at
		 FROM invitations WHERE property_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		propertyID,
		listPageSize,
	).Scan(&invs).Error
	if err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *repository) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, updated_at = ?
		 WHERE id IN (
			SELECT id FROM invitations
			WHERE status = ? AND expires_at <= ?
			ORDER BY expires_at ASC
			LIMIT ?
		 )`,
		domain.StatusExpired,
		now,
		domain.StatusPending,
		now,
		limit,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
