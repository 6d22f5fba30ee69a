package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository reads host accounting data. It never writes invoices or lines.
type Repository interface {
	// ListCandidateLines returns product lines of posted customer invoices
	// and credit notes, whatever their payment state.
	ListCandidateLines(ctx context.Context, db *gorm.DB) ([]CandidateLine, error)
	FindUser(ctx context.Context, db *gorm.DB, id int64) (*User, error)
}
