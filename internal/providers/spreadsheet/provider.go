package spreadsheet

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

var ErrDisabled = errors.New("spreadsheet_export_disabled")

type SummaryRow struct {
	Salesperson     string
	TotalSales      decimal.Decimal
	TotalReturns    decimal.Decimal
	NetSales        decimal.Decimal
	TotalCommission decimal.Decimal
}

type DetailRow struct {
	Date           time.Time
	Salesperson    string
	Invoice        string
	Product        string
	Quantity       decimal.Decimal
	Subtotal       decimal.Decimal
	CommissionRate decimal.Decimal
	Commission     decimal.Decimal
	Type           string
}

type CommissionReport struct {
	Summary    []SummaryRow
	GrandTotal SummaryRow
	Details    []DetailRow
}

type Provider interface {
	GenerateCommissionReport(ctx context.Context, data CommissionReport) (io.Reader, error)
}

type NoOpProvider struct{}

func (NoOpProvider) GenerateCommissionReport(context.Context, CommissionReport) (io.Reader, error) {
	return nil, ErrDisabled
}
