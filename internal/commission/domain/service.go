package domain

import (
	"context"
	"time"
)

type Service interface {
	// RunCommissionSync reconciles commission lines with the current
	// invoice lines. Failures are reported in the result, never panicked.
	RunCommissionSync(ctx context.Context) SyncResult
	GetCommissionReport(ctx context.Context, req ReportRequest) ([]ReportRow, error)
	// BuildReport aggregates once for the exporters and fails with ErrNoData
	// when nothing matches.
	BuildReport(ctx context.Context, req ReportRequest) (*Report, error)
	ListRecords(ctx context.Context, req ListRequest) (*ListResponse, error)
	ListSyncRuns(ctx context.Context, limit int) ([]SyncRunResponse, error)
	Diagnostics(ctx context.Context, req DiagnosticsRequest) (*Diagnostics, error)
}

type DiagnosticsRequest struct {
	DateFrom *time.Time
	DateTo   *time.Time
}
