package domain

import "errors"

var (
	ErrInvalidDateRange    = errors.New("invalid_date_range")
	ErrInvalidStatusFilter = errors.New("invalid_status_filter")
	ErrInvalidSalesperson  = errors.New("invalid_salesperson")
	ErrNoData              = errors.New("no_data")
	ErrExportUnavailable   = errors.New("export_unavailable")
	ErrSyncInProgress      = errors.New("sync already running")
)
