package spreadsheet

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	DetailSheet  = "Detailed Lines"

	headerColor  = "4472C4"
	numberFormat = "#,##0.00"
	dateFormat   = "yyyy-mm-dd"
)

var (
	summaryHeaders = []string{"Salesperson", "Total Sales", "Total Returns", "Net Sales", "Total Commission"}
	detailHeaders  = []string{"Date", "Salesperson", "Invoice", "Product", "Quantity", "Subtotal", "Commission Rate", "Commission", "Type"}
)

type ExcelProvider struct{}

func New() Provider {
	return &ExcelProvider{}
}

type styles struct {
	header    int
	number    int
	date      int
	total     int
	totalText int
}

func (p *ExcelProvider) GenerateCommissionReport(ctx context.Context, data CommissionReport) (io.Reader, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(DetailSheet); err != nil {
		return nil, err
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeSummary(f, st, data); err != nil {
		return nil, fmt.Errorf("write summary sheet: %w", err)
	}
	if err := writeDetails(f, st, data.Details); err != nil {
		return nil, fmt.Errorf("write detail sheet: %w", err)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	numFmt := numberFormat
	dateFmt := dateFormat

	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return st, err
	}
	st.number, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return st, err
	}
	st.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return st, err
	}
	st.total, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &numFmt})
	if err != nil {
		return st, err
	}
	st.totalText, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	return st, err
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any, styleFor func(col int) int) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		if style := styleFor(i + 1); style != 0 {
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSummary(f *excelize.File, st styles, data CommissionReport) error {
	if err := writeHeader(f, SummarySheet, summaryHeaders, st.header); err != nil {
		return err
	}

	numberCols := func(col int) int {
		if col >= 2 {
			return st.number
		}
		return 0
	}
	row := 2
	for _, r := range data.Summary {
		if err := setRow(f, SummarySheet, row, summaryValues(r.Salesperson, r), numberCols); err != nil {
			return err
		}
		row++
	}

	totalCols := func(col int) int {
		if col == 1 {
			return st.totalText
		}
		return st.total
	}
	if err := setRow(f, SummarySheet, row, summaryValues("GRAND TOTAL", data.GrandTotal), totalCols); err != nil {
		return err
	}

	if err := f.SetColWidth(SummarySheet, "A", "A", 25); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "B", "E", 15)
}

func summaryValues(label string, r SummaryRow) []any {
	return []any{
		label,
		r.TotalSales.InexactFloat64(),
		r.TotalReturns.InexactFloat64(),
		r.NetSales.InexactFloat64(),
		r.TotalCommission.InexactFloat64(),
	}
}

func writeDetails(f *excelize.File, st styles, details []DetailRow) error {
	if err := writeHeader(f, DetailSheet, detailHeaders, st.header); err != nil {
		return err
	}

	styleFor := func(col int) int {
		switch col {
		case 1:
			return st.date
		case 5, 6, 7, 8:
			return st.number
		default:
			return 0
		}
	}
	for i, d := range details {
		values := []any{
			d.Date,
			d.Salesperson,
			d.Invoice,
			d.Product,
			d.Quantity.InexactFloat64(),
			d.Subtotal.InexactFloat64(),
			d.CommissionRate.InexactFloat64(),
			d.Commission.InexactFloat64(),
			d.Type,
		}
		if err := setRow(f, DetailSheet, i+2, values, styleFor); err != nil {
			return err
		}
	}

	widths := map[string]float64{"A": 12, "B": 20, "C": 18, "D": 30, "E": 10, "F": 15, "G": 15, "H": 15, "I": 10}
	for col, w := range widths {
		if err := f.SetColWidth(DetailSheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}
