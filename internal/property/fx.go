package property

import (
	"github.com/homelet/tenantlink/internal/property/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("property.service",
	fx.Provide(repository.NewRepository),
)
