package accounting

import (
	"github.com/smallbiznis/salescommission/internal/accounting/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("accounting.repository",
	fx.Provide(repository.Provide),
)
