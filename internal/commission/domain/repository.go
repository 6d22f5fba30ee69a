package domain

import (
	"context"

	"github.com/smallbiznis/salescommission/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	ListAll(ctx context.Context, db *gorm.DB) ([]CommissionLine, error)
	CreateBatch(ctx context.Context, db *gorm.DB, lines []CommissionLine) error
	UpdateFields(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error
	DeleteByIDs(ctx context.Context, db *gorm.DB, ids []int64) error
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	ListReportLines(ctx context.Context, db *gorm.DB, req ReportRequest) ([]ReportLine, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest, cursor *pagination.Cursor, limit int) ([]CommissionLine, error)
	BreakdownByPaymentState(ctx context.Context, db *gorm.DB) ([]PaymentStateBreakdown, error)
}
