package service

import (
	"context"
	"time"

	"github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/internal/commission/report"
	"go.uber.org/zap"
)

func (s *Service) GetCommissionReport(ctx context.Context, req domain.ReportRequest) ([]domain.ReportRow, error) {
	rep, err := s.aggregate(ctx, req)
	if err != nil {
		return nil, err
	}
	return rep.Rows, nil
}

func (s *Service) BuildReport(ctx context.Context, req domain.ReportRequest) (*domain.Report, error) {
	rep, err := s.aggregate(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(rep.Rows) == 0 {
		return nil, domain.ErrNoData
	}
	return rep, nil
}

func (s *Service) aggregate(ctx context.Context, req domain.ReportRequest) (*domain.Report, error) {
	normalized, err := s.normalizeReportRequest(req)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.ListReportLines(ctx, s.db, normalized)
	if err != nil {
		return nil, err
	}

	rep := report.Aggregate(normalized, lines)
	s.log.Debug("commission.report.aggregated",
		zap.String("status_filter", string(normalized.StatusFilter)),
		zap.Time("date_from", normalized.DateFrom),
		zap.Time("date_to", normalized.DateTo),
		zap.Int("lines", len(lines)),
		zap.Int("rows", len(rep.Rows)),
	)
	return &rep, nil
}

// normalizeReportRequest fills the current month when dates are missing and
// rejects inverted ranges before any query runs.
func (s *Service) normalizeReportRequest(req domain.ReportRequest) (domain.ReportRequest, error) {
	now := s.clock.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if req.DateFrom.IsZero() {
		req.DateFrom = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if req.DateTo.IsZero() {
		req.DateTo = today
	}
	req.DateFrom = truncateDay(req.DateFrom)
	req.DateTo = truncateDay(req.DateTo)
	if req.DateFrom.After(req.DateTo) {
		return domain.ReportRequest{}, domain.ErrInvalidDateRange
	}

	filter, err := domain.ParseStatusFilter(string(req.StatusFilter))
	if err != nil {
		return domain.ReportRequest{}, err
	}
	req.StatusFilter = filter

	if err := s.validate.Var(req.SalespersonIDs, "omitempty,dive,gt=0"); err != nil {
		return domain.ReportRequest{}, domain.ErrInvalidSalesperson
	}
	return req, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
