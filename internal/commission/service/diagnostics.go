package service

import (
	"context"

	"github.com/smallbiznis/salescommission/internal/commission/domain"
)

// Diagnostics explains why a report may be empty: it shows how stored
// commission lines split across payment states and, for a date range, what
// each status filter would return.
func (s *Service) Diagnostics(ctx context.Context, req domain.DiagnosticsRequest) (*domain.Diagnostics, error) {
	breakdown, err := s.repo.BreakdownByPaymentState(ctx, s.db)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx, s.db)
	if err != nil {
		return nil, err
	}

	out := &domain.Diagnostics{
		TotalLines:     total,
		ByPaymentState: breakdown,
	}
	if req.DateFrom == nil && req.DateTo == nil {
		return out, nil
	}

	base := domain.ReportRequest{}
	if req.DateFrom != nil {
		base.DateFrom = *req.DateFrom
	}
	if req.DateTo != nil {
		base.DateTo = *req.DateTo
	}

	for _, filter := range []domain.StatusFilter{domain.StatusPaid, domain.StatusPosted, domain.StatusAll} {
		r := base
		r.StatusFilter = filter
		rep, err := s.aggregate(ctx, r)
		if err != nil {
			return nil, err
		}
		lines := 0
		for _, row := range rep.Rows {
			lines += len(row.Lines)
		}
		out.ByStatusFilter = append(out.ByStatusFilter, domain.FilterTotals{
			StatusFilter:    filter,
			Lines:           lines,
			TotalSales:      rep.Totals.NetSales,
			TotalCommission: rep.Totals.TotalCommission,
		})
	}
	return out, nil
}
