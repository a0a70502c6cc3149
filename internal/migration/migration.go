package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	invitationdomain "github.com/homelet/tenantlink/internal/invitation/domain"
	"github.com/homelet/tenantlink/internal/invitation/event"
	propertydomain "github.com/homelet/tenantlink/internal/property/domain"
	tenantdomain "github.com/homelet/tenantlink/internal/tenant/domain"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// RunMigrations applies the schema on startup so a fresh database is
// usable out of the box for local and self-hosted environments.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema for dialects without versioned migrations
// (local sqlite and mysql setups).
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	if err := db.AutoMigrate(
		&propertydomain.Property{},
		&tenantdomain.Tenant{},
		&tenantdomain.PropertyTenant{},
		&invitationdomain.Invitation{},
		&event.InvitationEvent{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// sqlite supports partial indexes, so it gets the same pending-pair
	// guard as postgres. mysql does not; there the transactional check in
	// the invitation repository is the only guard.
	if db.Dialector.Name() == "sqlite" {
		if err := db.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_invitations_pair_pending
			 ON invitations (property_id, tenant_id) WHERE status = 'pending'`,
		).Error; err != nil {
			return fmt.Errorf("create pending index: %w", err)
		}
	}

	return nil
}
