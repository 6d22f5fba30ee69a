package providers

import (
	"github.com/smallbiznis/salescommission/internal/providers/pdf"
	"github.com/smallbiznis/salescommission/internal/providers/spreadsheet"
	"github.com/smallbiznis/salescommission/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	pdf.Module,
	spreadsheet.Module,
	storage.Module,
)
