package pdf

import (
	"context"
	"errors"
	"io"
)

var ErrDisabled = errors.New("pdf_export_disabled")

// CommissionReportData carries preformatted values; the provider only lays
// them out.
type CommissionReportData struct {
	Title      string
	Period     string
	Filter     string
	Summary    []SummaryRow
	GrandTotal SummaryRow
	Sections   []Section
}

type SummaryRow struct {
	Salesperson     string
	TotalSales      string
	TotalReturns    string
	NetSales        string
	TotalCommission string
}

type Section struct {
	Salesperson string
	Lines       []DetailLine
	Subtotal    string
	Commission  string
}

type DetailLine struct {
	Date       string
	Invoice    string
	Product    string
	Quantity   string
	Subtotal   string
	Rate       string
	Commission string
	Type       string
}

type Provider interface {
	GenerateCommissionReport(ctx context.Context, data CommissionReportData) (io.Reader, error)
}

type NoOpProvider struct{}

func (NoOpProvider) GenerateCommissionReport(context.Context, CommissionReportData) (io.Reader, error) {
	return nil, ErrDisabled
}
