package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/pkg/db/option"
	"github.com/smallbiznis/salescommission/pkg/db/pagination"
)

const (
	defaultPageSize = 50
	maxPageSize     = 250
	defaultRunLimit = 20
)

func (s *Service) ListRecords(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	if req.DateFrom != nil && req.DateTo != nil && req.DateFrom.After(*req.DateTo) {
		return nil, domain.ErrInvalidDateRange
	}
	if req.SalespersonID < 0 {
		return nil, domain.ErrInvalidSalesperson
	}

	pageSize := int(req.PageSize)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, req, cursor, pageSize+1)
	if err != nil {
		return nil, err
	}

	items, pageInfo, err := pagination.Trim(items, pageSize, func(line domain.CommissionLine) pagination.Cursor {
		return pagination.Cursor{ID: line.ID, SortKey: line.InvoiceDate.UTC().Format(domain.CursorDateLayout)}
	})
	if err != nil {
		return nil, err
	}

	resp := &domain.ListResponse{
		Lines:         make([]domain.LineResponse, 0, len(items)),
		NextPageToken: pageInfo.NextPageToken,
		HasMore:       pageInfo.HasMore,
	}
	for _, item := range items {
		resp.Lines = append(resp.Lines, toLineResponse(item))
	}
	return resp, nil
}

func (s *Service) ListSyncRuns(ctx context.Context, limit int) ([]domain.SyncRunResponse, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultRunLimit
	}

	runs, err := s.runs.Find(ctx, &domain.SyncRun{},
		option.WithSortBy(option.SortBy{Column: "started_at", Desc: true}, option.SortBy{Column: "id", Desc: true}),
		option.WithLimit(limit),
	)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.SyncRunResponse, 0, len(runs))
	for _, run := range runs {
		item := domain.SyncRunResponse{
			ID:         snowflake.ID(run.ID).String(),
			RunID:      run.RunID,
			Actor:      run.Actor,
			Success:    run.Success,
			Detail:     run.Detail,
			Created:    run.Created,
			Updated:    run.Updated,
			Deleted:    run.Deleted,
			Retained:   run.Retained,
			Total:      run.Total,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
		}
		if len(run.Metadata) > 0 {
			item.Metadata = map[string]any(run.Metadata)
		}
		resp = append(resp, item)
	}
	return resp, nil
}

func toLineResponse(line domain.CommissionLine) domain.LineResponse {
	return domain.LineResponse{
		ID:               snowflake.ID(line.ID).String(),
		InvoiceID:        snowflake.ID(line.InvoiceID).String(),
		InvoiceLineID:    snowflake.ID(line.InvoiceLineID).String(),
		ProductID:        snowflake.ID(line.ProductID).String(),
		SalespersonID:    snowflake.ID(line.SalespersonID).String(),
		CompanyID:        snowflake.ID(line.CompanyID).String(),
		Quantity:         line.Quantity,
		CommissionRate:   line.CommissionRate,
		CommissionAmount: line.CommissionAmount,
		PriceSubtotal:    line.PriceSubtotal,
		MoveType:         line.MoveType,
		InvoiceDate:      line.InvoiceDate.UTC().Format(domain.CursorDateLayout),
		CurrencyCode:     line.CurrencyCode,
	}
}
