package repository

import (
	"context"
	"time"

	accounting "github.com/smallbiznis/salescommission/internal/accounting/domain"
	commission "github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() commission.Repository {
	return &repo{}
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB) ([]commission.CommissionLine, error) {
	var items []commission.CommissionLine
	err := db.WithContext(ctx).
		Model(&commission.CommissionLine{}).
		Order("invoice_line_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CreateBatch(ctx context.Context, db *gorm.DB, lines []commission.CommissionLine) error {
	if len(lines) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&lines).Error
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	values := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values["updated_at"] = time.Now().UTC()
	return db.WithContext(ctx).
		Model(&commission.CommissionLine{}).
		Where("id = ?", id).
		Updates(values).Error
}

func (r *repo) DeleteByIDs(ctx context.Context, db *gorm.DB, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&commission.CommissionLine{}).Error
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&commission.CommissionLine{}).Count(&count).Error
	return count, err
}

func (r *repo) ListReportLines(ctx context.Context, db *gorm.DB, req commission.ReportRequest) ([]commission.ReportLine, error) {
	var items []commission.ReportLine
	stmt := db.WithContext(ctx).
		Table("commission_lines AS cl").
		Select(`cl.id,
			cl.invoice_id,
			i.name AS invoice_name,
			cl.invoice_date,
			i.payment_state,
			cl.product_id,
			COALESCE(p.name, '') AS product_name,
			cl.salesperson_id,
			COALESCE(u.name, '') AS salesperson_name,
			cl.quantity,
			cl.price_subtotal,
			cl.commission_rate,
			cl.commission_amount,
			cl.move_type,
			cl.currency_code`).
		Joins("JOIN invoices i ON i.id = cl.invoice_id").
		Joins("LEFT JOIN products p ON p.id = cl.product_id").
		Joins("LEFT JOIN users u ON u.id = cl.salesperson_id").
		Where("i.state = ?", accounting.InvoiceStatePosted).
		Where("cl.invoice_date >= ? AND cl.invoice_date < ?", startOfDay(req.DateFrom), startOfDay(req.DateTo).AddDate(0, 0, 1))

	switch req.StatusFilter {
	case commission.StatusPaid:
		stmt = stmt.Where("i.payment_state IN ?", commission.SettledPaymentStates)
	case commission.StatusPosted:
		stmt = stmt.Where("i.payment_state NOT IN ?", commission.SettledPaymentStates)
	}
	if len(req.SalespersonIDs) > 0 {
		stmt = stmt.Where("cl.salesperson_id IN ?", req.SalespersonIDs)
	}

	err := stmt.
		Order("cl.invoice_date ASC").
		Order("i.name ASC").
		Order("cl.id ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter commission.ListRequest, cursor *pagination.Cursor, limit int) ([]commission.CommissionLine, error) {
	var items []commission.CommissionLine
	stmt := db.WithContext(ctx).Model(&commission.CommissionLine{})

	if filter.SalespersonID != 0 {
		stmt = stmt.Where("salesperson_id = ?", filter.SalespersonID)
	}
	if filter.DateFrom != nil {
		stmt = stmt.Where("invoice_date >= ?", startOfDay(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		stmt = stmt.Where("invoice_date < ?", startOfDay(*filter.DateTo).AddDate(0, 0, 1))
	}
	if cursor != nil {
		key, err := time.Parse(commission.CursorDateLayout, cursor.SortKey)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		stmt = stmt.Where("(invoice_date < ?) OR (invoice_date = ? AND id < ?)", key, key, cursor.ID)
	}

	err := stmt.
		Order("invoice_date DESC").
		Order("id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) BreakdownByPaymentState(ctx context.Context, db *gorm.DB) ([]commission.PaymentStateBreakdown, error) {
	var items []commission.PaymentStateBreakdown
	err := db.WithContext(ctx).Raw(
		`SELECT i.payment_state,
		        COUNT(cl.id) AS count,
		        COALESCE(SUM(cl.price_subtotal), 0) AS total_sales,
		        COALESCE(SUM(cl.commission_amount), 0) AS total_commission
		 FROM commission_lines cl
		 JOIN invoices i ON i.id = cl.invoice_id
		 GROUP BY i.payment_state
		 ORDER BY i.payment_state ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
