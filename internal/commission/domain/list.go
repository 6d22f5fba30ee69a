package domain

import (
	"time"

	"github.com/shopspring/decimal"
	accounting "github.com/smallbiznis/salescommission/internal/accounting/domain"
)

type ListRequest struct {
	SalespersonID int64
	DateFrom      *time.Time
	DateTo        *time.Time
	PageToken     string
	PageSize      int32
}

type LineResponse struct {
	ID               string              `json:"id"`
	InvoiceID        string              `json:"invoice_id"`
	InvoiceLineID    string              `json:"invoice_line_id"`
	ProductID        string              `json:"product_id"`
	SalespersonID    string              `json:"salesperson_id"`
	CompanyID        string              `json:"company_id"`
	Quantity         decimal.Decimal     `json:"quantity"`
	CommissionRate   decimal.Decimal     `json:"commission_rate"`
	CommissionAmount decimal.Decimal     `json:"commission_amount"`
	PriceSubtotal    decimal.Decimal     `json:"price_subtotal"`
	MoveType         accounting.MoveType `json:"move_type"`
	InvoiceDate      string              `json:"invoice_date"`
	CurrencyCode     string              `json:"currency_code"`
}

type ListResponse struct {
	Lines         []LineResponse `json:"lines"`
	NextPageToken string         `json:"next_page_token,omitempty"`
	HasMore       bool           `json:"has_more"`
}

type SyncRunResponse struct {
	ID         string         `json:"id"`
	RunID      string         `json:"run_id"`
	Actor      string         `json:"actor"`
	Success    bool           `json:"success"`
	Detail     string         `json:"detail"`
	Created    int            `json:"created"`
	Updated    int            `json:"updated"`
	Deleted    int            `json:"deleted"`
	Retained   int            `json:"retained"`
	Total      int64          `json:"total"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// PaymentStateBreakdown summarises commission lines by invoice payment state.
type PaymentStateBreakdown struct {
	PaymentState    accounting.PaymentState `json:"payment_state"`
	Count           int64                   `json:"count"`
	TotalSales      decimal.Decimal         `json:"total_sales"`
	TotalCommission decimal.Decimal         `json:"total_commission"`
}

type FilterTotals struct {
	StatusFilter    StatusFilter    `json:"status_filter"`
	Lines           int             `json:"lines"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalCommission decimal.Decimal `json:"total_commission"`
}

type Diagnostics struct {
	TotalLines     int64                   `json:"total_lines"`
	ByPaymentState []PaymentStateBreakdown `json:"by_payment_state"`
	ByStatusFilter []FilterTotals          `json:"by_status_filter,omitempty"`
}

// CursorDateLayout formats the invoice date part of a listing cursor.
const CursorDateLayout = "2006-01-02"
