package domain

import (
	"time"

	"github.com/shopspring/decimal"
	accounting "github.com/smallbiznis/salescommission/internal/accounting/domain"
	"gorm.io/datatypes"
)

// CommissionLine is the persisted commission earned (or reversed) by one
// invoice line. InvoiceLineID is the natural key.
type CommissionLine struct {
	ID               int64               `json:"id" gorm:"primaryKey"`
	InvoiceID        int64               `json:"invoice_id" gorm:"not null;index:idx_commission_lines_invoice"`
	InvoiceLineID    int64               `json:"invoice_line_id" gorm:"not null;uniqueIndex:ux_commission_lines_invoice_line,priority:1"`
	ProductID        int64               `json:"product_id" gorm:"not null"`
	SalespersonID    int64               `json:"salesperson_id" gorm:"not null;index:idx_commission_lines_salesperson_date,priority:1"`
	CompanyID        int64               `json:"company_id" gorm:"not null;uniqueIndex:ux_commission_lines_invoice_line,priority:2"`
	Quantity         decimal.Decimal     `json:"quantity" gorm:"type:numeric(20,6);not null;default:0"`
	CommissionRate   decimal.Decimal     `json:"commission_rate" gorm:"type:numeric(7,4);not null;default:0"`
	CommissionAmount decimal.Decimal     `json:"commission_amount" gorm:"type:numeric(20,6);not null;default:0"`
	PriceSubtotal    decimal.Decimal     `json:"price_subtotal" gorm:"type:numeric(20,6);not null;default:0"`
	MoveType         accounting.MoveType `json:"move_type" gorm:"type:text;not null"`
	InvoiceDate      time.Time           `json:"invoice_date" gorm:"type:date;not null;index:idx_commission_lines_salesperson_date,priority:2"`
	CurrencyCode     string              `json:"currency_code" gorm:"type:text;not null;default:''"`
	CreatedAt        time.Time           `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time           `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CommissionLine) TableName() string { return "commission_lines" }

// SyncRun is one row of the reconciliation history.
type SyncRun struct {
	ID         int64             `json:"id" gorm:"primaryKey"`
	RunID      string            `json:"run_id" gorm:"type:text;not null;uniqueIndex:ux_commission_sync_runs_run_id"`
	Actor      string            `json:"actor" gorm:"type:text;not null;default:''"`
	Success    bool              `json:"success" gorm:"not null;default:false"`
	Detail     string            `json:"detail" gorm:"type:text;not null;default:''"`
	Created    int               `json:"created" gorm:"not null;default:0"`
	Updated    int               `json:"updated" gorm:"not null;default:0"`
	Deleted    int               `json:"deleted" gorm:"not null;default:0"`
	Retained   int               `json:"retained" gorm:"not null;default:0"`
	Total      int64             `json:"total" gorm:"not null;default:0"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	StartedAt  time.Time         `json:"started_at" gorm:"not null;index:idx_commission_sync_runs_started"`
	FinishedAt time.Time         `json:"finished_at" gorm:"not null"`
}

func (SyncRun) TableName() string { return "commission_sync_runs" }

// Payload is the target state of a commission line computed from its
// invoice line.
type Payload struct {
	InvoiceID        int64
	InvoiceLineID    int64
	ProductID        int64
	SalespersonID    int64
	CompanyID        int64
	Quantity         decimal.Decimal
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	PriceSubtotal    decimal.Decimal
	MoveType         accounting.MoveType
	InvoiceDate      time.Time
	CurrencyCode     string
}

// Reason explains the calculator's verdict for one candidate line.
type Reason string

const (
	ReasonEligible         Reason = "eligible"
	ReasonAwaitingPayment  Reason = "awaiting_payment"
	ReasonNoCommissionRate Reason = "no_commission_rate"
	ReasonNoSalesperson    Reason = "no_salesperson"
	ReasonNotCandidate     Reason = "not_candidate"
)

// SyncResult is the outcome of a reconciliation pass.
type SyncResult struct {
	Success  bool   `json:"success"`
	Detail   string `json:"detail"`
	RunID    string `json:"run_id,omitempty"`
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
	Deleted  int    `json:"deleted"`
	Retained int    `json:"retained"`
	Total    int64  `json:"total"`

	// Err carries the cause of a failed run for in-process callers.
	Err error `json:"-"`
}
