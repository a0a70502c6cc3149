package linking

import (
	"github.com/homelet/tenantlink/internal/linking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("linking.service",
	fx.Provide(service.New),
)
