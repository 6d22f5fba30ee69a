package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	accounting "github.com/smallbiznis/salescommission/internal/accounting/domain"
)

// StatusFilter restricts a report by the payment state of the invoice.
type StatusFilter string

const (
	StatusPaid   StatusFilter = "paid"
	StatusPosted StatusFilter = "posted"
	StatusAll    StatusFilter = "all"
)

// ParseStatusFilter defaults an empty value to paid.
func ParseStatusFilter(value string) (StatusFilter, error) {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(value))) {
	case "", StatusPaid:
		return StatusPaid, nil
	case StatusPosted:
		return StatusPosted, nil
	case StatusAll:
		return StatusAll, nil
	default:
		return "", ErrInvalidStatusFilter
	}
}

// SettledPaymentStates are the payment states the paid filter accepts.
var SettledPaymentStates = []accounting.PaymentState{
	accounting.PaymentStatePaid,
	accounting.PaymentStateInPayment,
}

type ReportRequest struct {
	DateFrom       time.Time
	DateTo         time.Time
	StatusFilter   StatusFilter
	SalespersonIDs []int64
}

// ReportLine is a commission line joined with the names a report shows.
type ReportLine struct {
	ID               int64
	InvoiceID        int64
	InvoiceName      string
	InvoiceDate      time.Time
	PaymentState     accounting.PaymentState
	ProductID        int64
	ProductName      string
	SalespersonID    int64
	SalespersonName  string
	Quantity         decimal.Decimal
	PriceSubtotal    decimal.Decimal
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	MoveType         accounting.MoveType
	CurrencyCode     string
}

type ReportDetail struct {
	InvoiceDate      time.Time       `json:"invoice_date"`
	InvoiceNumber    string          `json:"invoice_number"`
	InvoiceID        int64           `json:"invoice_id,string"`
	RecordID         int64           `json:"record_id,string"`
	ProductName      string          `json:"product_name"`
	Quantity         decimal.Decimal `json:"quantity"`
	LineSubtotal     decimal.Decimal `json:"line_subtotal"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	MoveType         string          `json:"move_type"`
}

type ReportRow struct {
	SalespersonID   int64           `json:"salesperson_id,string"`
	SalespersonName string          `json:"salesperson_name"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalReturns    decimal.Decimal `json:"total_returns"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	Lines           []ReportDetail  `json:"lines"`
}

// NetSales is sales minus returns.
func (r ReportRow) NetSales() decimal.Decimal {
	return r.TotalSales.Sub(r.TotalReturns)
}

type ReportTotals struct {
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalReturns    decimal.Decimal `json:"total_returns"`
	NetSales        decimal.Decimal `json:"net_sales"`
	TotalCommission decimal.Decimal `json:"total_commission"`
}

// Report is one aggregation shared by every export format.
type Report struct {
	Request ReportRequest
	Rows    []ReportRow
	Totals  ReportTotals
}
