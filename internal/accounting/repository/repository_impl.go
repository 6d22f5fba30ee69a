package repository

import (
	"context"

	"github.com/smallbiznis/salescommission/internal/accounting/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListCandidateLines(ctx context.Context, db *gorm.DB) ([]domain.CandidateLine, error) {
	var items []domain.CandidateLine
	err := db.WithContext(ctx).Raw(
		`SELECT l.id AS line_id,
		        l.invoice_id,
		        i.name AS invoice_name,
		        l.product_id,
		        l.display_type,
		        l.quantity,
		        l.price_subtotal AS subtotal,
		        COALESCE(p.commission_rate, 0) AS commission_rate,
		        i.state,
		        i.payment_state,
		        i.move_type,
		        i.invoice_user_id,
		        i.user_id,
		        i.invoice_date,
		        i.company_id,
		        COALESCE(NULLIF(i.currency_code, ''), c.currency_code, '') AS currency_code
		 FROM invoice_lines l
		 JOIN invoices i ON i.id = l.invoice_id
		 LEFT JOIN products p ON p.id = l.product_id
		 LEFT JOIN companies c ON c.id = i.company_id
		 WHERE i.state = ?
		   AND i.move_type IN (?, ?)
		   AND l.product_id IS NOT NULL
		   AND COALESCE(l.display_type, '') = ''
		 ORDER BY l.id ASC`,
		domain.InvoiceStatePosted,
		domain.MoveTypeOutInvoice,
		domain.MoveTypeOutRefund,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, company_id, name, login, role, active, created_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&u).Error
	if err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, nil
	}
	return &u, nil
}
