package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/homelet/tenantlink/internal/property/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_property_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&domain.Property{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(7)
	repo := NewRepository(db)

	property := &domain.Property{
		ID:          node.Generate(),
		OwnerUserID: node.Generate(),
		Name:        "Maple Court",
		Address:     "12 Maple St",
	}
	if err := db.Create(property).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	found, err := repo.GetByID(ctx, property.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assert.Equal(t, property.Name, found.Name)

	_, err = repo.GetByID(ctx, node.Generate())
	assert.True(t, errors.Is(err, domain.ErrNotFound), "expected not found, got %v", err)
}

func TestIsOwner(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(7)
	repo := NewRepository(db)

	ownerID := node.Generate()
	property := &domain.Property{
		ID:          node.Generate(),
		OwnerUserID: ownerID,
		Name:        "Maple Court",
		Address:     "12 Maple St",
	}
	if err := db.Create(property).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	owns, err := repo.IsOwner(ctx, ownerID, property.ID)
	if err != nil {
		t.Fatalf("is owner: %v", err)
	}
	assert.True(t, owns)

	owns, err = repo.IsOwner(ctx, node.Generate(), property.ID)
	if err != nil {
		t.Fatalf("is owner: %v", err)
	}
	assert.False(t, owns)
}
