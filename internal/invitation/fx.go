package invitation

import (
	"github.com/homelet/tenantlink/internal/invitation/event"
	"github.com/homelet/tenantlink/internal/invitation/repository"
	"github.com/homelet/tenantlink/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(event.NewRecorder),
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
