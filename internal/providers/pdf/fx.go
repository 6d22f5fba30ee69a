package pdf

import (
	"github.com/smallbiznis/salescommission/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("pdf.provider",
	fx.Provide(NewProvider),
)

func NewProvider(cfg config.Config) Provider {
	if !cfg.Export.PDFEnabled {
		return NoOpProvider{}
	}
	return New()
}
