package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/internal/config"
	"github.com/smallbiznis/salescommission/internal/observability/metrics"
	"github.com/smallbiznis/salescommission/internal/providers/pdf"
	"github.com/smallbiznis/salescommission/internal/providers/spreadsheet"
	"github.com/smallbiznis/salescommission/internal/providers/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"

	reportTitle = "Sales Commission Report"
)

// File is a rendered report ready to be streamed to the caller.
type File struct {
	Name        string
	ContentType string
	Body        []byte
	ArchiveKey  string
}

type Service interface {
	XLSX(ctx context.Context, req domain.ReportRequest) (*File, error)
	PDF(ctx context.Context, req domain.ReportRequest) (*File, error)
}

type Params struct {
	fx.In

	Log         *zap.Logger
	Config      config.Config
	Commission  domain.Service
	Spreadsheet spreadsheet.Provider
	PDF         pdf.Provider
	Archive     storage.Provider `optional:"true"`
	Metrics     *metrics.Metrics `optional:"true"`
}

type exporter struct {
	log         *zap.Logger
	cfg         config.Config
	commission  domain.Service
	spreadsheet spreadsheet.Provider
	pdf         pdf.Provider
	archive     storage.Provider
	metrics     *metrics.Metrics
}

func New(p Params) Service {
	archive := p.Archive
	if archive == nil {
		archive = storage.NoOpProvider{}
	}
	return &exporter{
		log:         p.Log.Named("commission.export"),
		cfg:         p.Config,
		commission:  p.Commission,
		spreadsheet: p.Spreadsheet,
		pdf:         p.PDF,
		archive:     archive,
		metrics:     p.Metrics,
	}
}

func (e *exporter) XLSX(ctx context.Context, req domain.ReportRequest) (*File, error) {
	if !e.cfg.Export.XLSXEnabled {
		return nil, fmt.Errorf("%w: spreadsheet export is disabled, set EXPORT_XLSX_ENABLED=true", domain.ErrExportUnavailable)
	}

	rep, err := e.commission.BuildReport(ctx, req)
	if err != nil {
		return nil, err
	}

	r, err := e.spreadsheet.GenerateCommissionReport(ctx, spreadsheetData(rep))
	if err != nil {
		if errors.Is(err, spreadsheet.ErrDisabled) {
			return nil, fmt.Errorf("%w: spreadsheet writer is not available", domain.ErrExportUnavailable)
		}
		return nil, fmt.Errorf("render spreadsheet: %w", err)
	}
	return e.finish(ctx, rep, FormatXLSX, ContentTypeXLSX, r)
}

func (e *exporter) PDF(ctx context.Context, req domain.ReportRequest) (*File, error) {
	if !e.cfg.Export.PDFEnabled {
		return nil, fmt.Errorf("%w: pdf export is disabled, set EXPORT_PDF_ENABLED=true", domain.ErrExportUnavailable)
	}

	rep, err := e.commission.BuildReport(ctx, req)
	if err != nil {
		return nil, err
	}

	r, err := e.pdf.GenerateCommissionReport(ctx, pdfData(rep))
	if err != nil {
		if errors.Is(err, pdf.ErrDisabled) {
			return nil, fmt.Errorf("%w: pdf renderer is not available", domain.ErrExportUnavailable)
		}
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return e.finish(ctx, rep, FormatPDF, ContentTypePDF, r)
}

func (e *exporter) finish(ctx context.Context, rep *domain.Report, format, contentType string, r io.Reader) (*File, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	file := &File{
		Name:        FileName(rep.Request, format),
		ContentType: contentType,
		Body:        body,
	}
	file.ArchiveKey = e.archiveFile(ctx, rep.Request, file)

	e.metrics.RecordReportExport(ctx, format, string(rep.Request.StatusFilter))
	e.log.Info("commission.report.exported",
		zap.String("format", format),
		zap.String("file", file.Name),
		zap.Int("bytes", len(body)),
		zap.Int("rows", len(rep.Rows)),
		zap.String("archive_key", file.ArchiveKey),
	)
	return file, nil
}

// archiveFile uploads a copy when archiving is configured. A failed upload
// only loses the copy.
func (e *exporter) archiveFile(ctx context.Context, req domain.ReportRequest, file *File) string {
	if !e.archive.Enabled() {
		return ""
	}
	key := ArchiveKey(e.cfg.Export.Archive.Prefix, req, file.Name)
	if err := e.archive.Put(ctx, key, bytes.NewReader(file.Body), file.ContentType); err != nil {
		e.log.Warn("commission.report.archive_failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

// FileName is commission-report-<from>-<to>.<format>.
func FileName(req domain.ReportRequest, format string) string {
	base := slug.Make(fmt.Sprintf("commission report %s %s",
		req.DateFrom.Format("2006-01-02"),
		req.DateTo.Format("2006-01-02"),
	))
	return base + "." + format
}

func ArchiveKey(prefix string, req domain.ReportRequest, name string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "commission-reports"
	}
	return path.Join(prefix, req.DateFrom.Format("2006"), name)
}

func spreadsheetData(rep *domain.Report) spreadsheet.CommissionReport {
	data := spreadsheet.CommissionReport{
		GrandTotal: spreadsheet.SummaryRow{
			TotalSales:      rep.Totals.TotalSales,
			TotalReturns:    rep.Totals.TotalReturns,
			NetSales:        rep.Totals.NetSales,
			TotalCommission: rep.Totals.TotalCommission,
		},
	}
	for _, row := range rep.Rows {
		data.Summary = append(data.Summary, spreadsheet.SummaryRow{
			Salesperson:     row.SalespersonName,
			TotalSales:      row.TotalSales,
			TotalReturns:    row.TotalReturns,
			NetSales:        row.NetSales(),
			TotalCommission: row.TotalCommission,
		})
		for _, l := range row.Lines {
			data.Details = append(data.Details, spreadsheet.DetailRow{
				Date:           l.InvoiceDate,
				Salesperson:    row.SalespersonName,
				Invoice:        l.InvoiceNumber,
				Product:        l.ProductName,
				Quantity:       l.Quantity,
				Subtotal:       l.LineSubtotal,
				CommissionRate: l.CommissionRate,
				Commission:     l.CommissionAmount,
				Type:           l.MoveType,
			})
		}
	}
	return data
}

func pdfData(rep *domain.Report) pdf.CommissionReportData {
	req := rep.Request
	data := pdf.CommissionReportData{
		Title:  reportTitle,
		Period: req.DateFrom.Format("2006-01-02") + " to " + req.DateTo.Format("2006-01-02"),
		Filter: filterLabel(req.StatusFilter),
		GrandTotal: pdf.SummaryRow{
			TotalSales:      money(rep.Totals.TotalSales),
			TotalReturns:    money(rep.Totals.TotalReturns),
			NetSales:        money(rep.Totals.NetSales),
			TotalCommission: money(rep.Totals.TotalCommission),
		},
	}
	for _, row := range rep.Rows {
		data.Summary = append(data.Summary, pdf.SummaryRow{
			Salesperson:     row.SalespersonName,
			TotalSales:      money(row.TotalSales),
			TotalReturns:    money(row.TotalReturns),
			NetSales:        money(row.NetSales()),
			TotalCommission: money(row.TotalCommission),
		})

		section := pdf.Section{
			Salesperson: row.SalespersonName,
			Commission:  money(row.TotalCommission),
		}
		subtotal := decimal.Zero
		for _, l := range row.Lines {
			subtotal = subtotal.Add(l.LineSubtotal)
			section.Lines = append(section.Lines, pdf.DetailLine{
				Date:       l.InvoiceDate.Format("2006-01-02"),
				Invoice:    l.InvoiceNumber,
				Product:    l.ProductName,
				Quantity:   l.Quantity.StringFixed(2),
				Subtotal:   money(l.LineSubtotal),
				Rate:       l.CommissionRate.StringFixed(2),
				Commission: money(l.CommissionAmount),
				Type:       l.MoveType,
			})
		}
		section.Subtotal = money(subtotal)
		data.Sections = append(data.Sections, section)
	}
	return data
}

func filterLabel(f domain.StatusFilter) string {
	switch f {
	case domain.StatusPosted:
		return "Posted Invoices (Not Paid)"
	case domain.StatusAll:
		return "All Invoices"
	default:
		return "Paid Invoices Only"
	}
}

// money formats d with two decimals and comma grouping without a float
// round trip.
func money(d decimal.Decimal) string {
	d = d.Round(2)
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return d.StringFixed(2)
	}
	out := humanize.BigComma(n) + "." + frac
	if d.IsNegative() {
		return "-" + out
	}
	return out
}
