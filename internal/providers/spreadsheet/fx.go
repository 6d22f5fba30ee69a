package spreadsheet

import (
	"github.com/smallbiznis/salescommission/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("spreadsheet.provider",
	fx.Provide(NewProvider),
)

func NewProvider(cfg config.Config) Provider {
	if !cfg.Export.XLSXEnabled {
		return NoOpProvider{}
	}
	return New()
}
