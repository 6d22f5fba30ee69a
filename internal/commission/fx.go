package commission

import (
	"github.com/smallbiznis/salescommission/internal/commission/export"
	"github.com/smallbiznis/salescommission/internal/commission/repository"
	"github.com/smallbiznis/salescommission/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(export.New),
)
