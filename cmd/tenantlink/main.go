package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/homelet/tenantlink/internal/clock"
	"github.com/homelet/tenantlink/internal/config"
	"github.com/homelet/tenantlink/internal/invitation"
	"github.com/homelet/tenantlink/internal/linking"
	"github.com/homelet/tenantlink/internal/migration"
	"github.com/homelet/tenantlink/internal/observability"
	"github.com/homelet/tenantlink/internal/property"
	"github.com/homelet/tenantlink/internal/providers/email"
	"github.com/homelet/tenantlink/internal/ratelimit"
	"github.com/homelet/tenantlink/internal/scheduler"
	"github.com/homelet/tenantlink/internal/server"
	"github.com/homelet/tenantlink/internal/tenant"
	"github.com/homelet/tenantlink/pkg/db"
	"github.com/homelet/tenantlink/pkg/token"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		fx.Provide(token.NewGenerator),
		db.Module,
		clock.Module,
		migration.Module,

		property.Module,
		tenant.Module,
		linking.Module,
		invitation.Module,
		email.Module,
		ratelimit.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
