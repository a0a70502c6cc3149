package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/homelet/tenantlink/internal/clock"
	"github.com/homelet/tenantlink/internal/invitation/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_invitation_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&domain.Invitation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newInvitation(node *snowflake.Node, propertyID, tenantID snowflake.ID, now time.Time) *domain.Invitation {
	return &domain.Invitation{
		ID:          node.Generate(),
		PropertyID:  propertyID,
		TenantID:    tenantID,
		OwnerUserID: node.Generate(),
		Email:       "tenant@example.com",
		Token:       fmt.Sprintf("tok_%d", node.Generate()),
		Status:      domain.StatusPending,
		ExpiresAt:   now.Add(7 * 24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreateRejectsSecondPending(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(2)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRepository(db, clock.NewFakeClock(now))

	propertyID := node.Generate()
	tenantID := node.Generate()

	first := newInvitation(node, propertyID, tenantID, now)
	if err := repo.Create(ctx, first, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	second := newInvitation(node, propertyID, tenantID, now)
	err := repo.Create(ctx, second, false)
	assert.True(t, errors.Is(err, domain.ErrPendingExists), "expected pending conflict, got %v", err)
}

func TestCreateTranslatesInsertConflict(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(2)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRepository(db, clock.NewFakeClock(now))

	propertyID := node.Generate()
	tenantID := node.Generate()

	// Stands in for the partial pending-pair index. With the expired seed
	// row below it recreates a concurrent creator committing between the
	// pending check and the insert; the loser must see the same pending
	// conflict as the fast path, not a raw constraint error.
	if err := db.Exec(
		`CREATE UNIQUE INDEX ux_invitations_pair ON invitations (property_id, tenant_id)`,
	).Error; err != nil {
		t.Fatalf("create index: %v", err)
	}

	seed := newInvitation(node, propertyID, tenantID, now)
	seed.Status = domain.StatusExpired
	if err := db.Create(seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	loser := newInvitation(node, propertyID, tenantID, now)
	err := repo.Create(ctx, loser, false)
	assert.True(t, errors.Is(err, domain.ErrPendingExists), "expected pending conflict, got %v", err)
}

func TestCreateSupersedesPending(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(2)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRepository(db, clock.NewFakeClock(now))

	propertyID := node.Generate()
	tenantID := node.Generate()

	first := newInvitation(node, propertyID, tenantID, now)
	if err := repo.Create(ctx, first, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	second := newInvitation(node, propertyID, tenantID, now)
	if err := repo.Create(ctx, second, true); err != nil {
		t.Fatalf("supersede: %v", err)
	}

	old, err := repo.FindByToken(ctx, first.Token)
	if err != nil {
		t.Fatalf("find old: %v", err)
	}
	assert.Equal(t, domain.StatusExpired, old.Status)

	fresh, err := repo.FindPending(ctx, propertyID, tenantID)
	if err != nil {
		t.Fatalf("find pending: %v", err)
	}
	assert.Equal(t, second.ID, fresh.ID)
}

func TestFindByTokenUnknown(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRepository(db, clock.NewFakeClock(time.Now()))

	_, err := repo.FindByToken(ctx, "tok_unknown")
	assert.True(t, errors.Is(err, domain.ErrInvalidToken), "expected invalid token, got %v", err)
}

func TestTransitionStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(2)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRepository(db, clock.NewFakeClock(now))

	inv := newInvitation(node, node.Generate(), node.Generate(), now)
	if err := repo.Create(ctx, inv, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	// First resolver wins.
	if err := repo.TransitionStatus(ctx, inv.ID, domain.StatusPending, domain.StatusAccepted); err != nil {
		t.Fatalf("transition: %v", err)
	}

	// Second resolver loses: the row is no longer pending.
	err := repo.TransitionStatus(ctx, inv.ID, domain.StatusPending, domain.StatusAccepted)
	assert.True(t, errors.Is(err, domain.ErrStatusConflict), "expected status conflict, got %v", err)

	err = repo.TransitionStatus(ctx, inv.ID, domain.StatusPending, domain.StatusDeclined)
	assert.True(t, errors.Is(err, domain.ErrStatusConflict), "expected status conflict, got %v", err)

	stored, err := repo.FindByToken(ctx, inv.Token)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	assert.Equal(t, domain.StatusAccepted, stored.Status)
}

func TestExpireOverdue(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(2)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRepository(db, clock.NewFakeClock(now))

	overdue := newInvitation(node, node.Generate(), node.Generate(), now)
	overdue.ExpiresAt = now.Add(-time.Hour)
	if err := repo.Create(ctx, overdue, false); err != nil {
		t.Fatalf("create overdue: %v", err)
	}

	current := newInvitation(node, node.Generate(), node.Generate(), now)
	if err := repo.Create(ctx, current, false); err != nil {
		t.Fatalf("create current: %v", err)
	}

	accepted := newInvitation(node, node.Generate(), node.Generate(), now)
	accepted.ExpiresAt = now.Add(-time.Hour)
	if err := repo.Create(ctx, accepted, false); err != nil {
		t.Fatalf("create accepted: %v", err)
	}
	if err := repo.TransitionStatus(ctx, accepted.ID, domain.StatusPending, domain.StatusAccepted); err != nil {
		t.Fatalf("transition: %v", err)
	}

	changed, err := repo.ExpireOverdue(ctx, now, 100)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	assert.Equal(t, int64(1), changed)

	stored, _ := repo.FindByToken(ctx, overdue.Token)
	assert.Equal(t, domain.StatusExpired, stored.Status)

	stored, _ = repo.FindByToken(ctx, current.Token)
	assert.Equal(t, domain.StatusPending, stored.Status)

	stored, _ = repo.FindByToken(ctx, accepted.Token)
	assert.Equal(t, domain.StatusAccepted, stored.Status)
}

func TestListByPropertyOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(2)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRepository(db, clock.NewFakeClock(now))

	propertyID := node.Generate()

	older := newInvitation(node, propertyID, node.Generate(), now.Add(-time.Hour))
	if err := repo.Create(ctx, older, false); err != nil {
		t.Fatalf("create older: %v", err)
	}
	newer := newInvitation(node, propertyID, node.Generate(), now)
	if err := repo.Create(ctx, newer, false); err != nil {
		t.Fatalf("create newer: %v", err)
	}
	other := newInvitation(node, node.Generate(), node.Generate(), now)
	if err := repo.Create(ctx, other, false); err != nil {
		t.Fatalf("create other: %v", err)
	}

	invs, err := repo.ListByProperty(ctx, propertyID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if assert.Len(t, invs, 2) {
		assert.Equal(t, newer.ID, invs[0].ID)
		assert.Equal(t, older.ID, invs[1].ID)
	}
}
