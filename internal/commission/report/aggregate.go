// Package report groups commission lines by salesperson. Aggregate is the
// only place totals are computed; every export format renders its output.
package report

import (
	"sort"

	"github.com/shopspring/decimal"
	accounting "github.com/smallbiznis/salescommission/internal/accounting/domain"
	"github.com/smallbiznis/salescommission/internal/commission/domain"
)

func Aggregate(req domain.ReportRequest, lines []domain.ReportLine) domain.Report {
	bySalesperson := map[int64]*domain.ReportRow{}
	ordered := make([]domain.ReportLine, len(lines))
	copy(ordered, lines)
	sortLines(ordered)

	for _, line := range ordered {
		row, ok := bySalesperson[line.SalespersonID]
		if !ok {
			row = &domain.ReportRow{
				SalespersonID:   line.SalespersonID,
				SalespersonName: line.SalespersonName,
				TotalSales:      decimal.Zero,
				TotalReturns:    decimal.Zero,
				TotalCommission: decimal.Zero,
			}
			bySalesperson[line.SalespersonID] = row
		}

		if line.MoveType == accounting.MoveTypeOutRefund {
			row.TotalReturns = row.TotalReturns.Add(line.PriceSubtotal.Abs())
		} else {
			row.TotalSales = row.TotalSales.Add(line.PriceSubtotal)
		}
		row.TotalCommission = row.TotalCommission.Add(line.CommissionAmount)

		row.Lines = append(row.Lines, domain.ReportDetail{
			InvoiceDate:      line.InvoiceDate,
			InvoiceNumber:    line.InvoiceName,
			InvoiceID:        line.InvoiceID,
			RecordID:         line.ID,
			ProductName:      line.ProductName,
			Quantity:         line.Quantity,
			LineSubtotal:     line.PriceSubtotal,
			CommissionRate:   line.CommissionRate,
			CommissionAmount: line.CommissionAmount,
			MoveType:         line.MoveType.Label(),
		})
	}

	rows := make([]domain.ReportRow, 0, len(bySalesperson))
	for _, row := range bySalesperson {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SalespersonName != rows[j].SalespersonName {
			return rows[i].SalespersonName < rows[j].SalespersonName
		}
		return rows[i].SalespersonID < rows[j].SalespersonID
	})

	return domain.Report{
		Request: req,
		Rows:    rows,
		Totals:  Totals(rows),
	}
}

// Totals sums the rows into a grand total.
func Totals(rows []domain.ReportRow) domain.ReportTotals {
	totals := domain.ReportTotals{
		TotalSales:      decimal.Zero,
		TotalReturns:    decimal.Zero,
		NetSales:        decimal.Zero,
		TotalCommission: decimal.Zero,
	}
	for _, row := range rows {
		totals.TotalSales = totals.TotalSales.Add(row.TotalSales)
		totals.TotalReturns = totals.TotalReturns.Add(row.TotalReturns)
		totals.TotalCommission = totals.TotalCommission.Add(row.TotalCommission)
	}
	totals.NetSales = totals.TotalSales.Sub(totals.TotalReturns)
	return totals
}

func sortLines(lines []domain.ReportLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if !a.InvoiceDate.Equal(b.InvoiceDate) {
			return a.InvoiceDate.Before(b.InvoiceDate)
		}
		if a.InvoiceName != b.InvoiceName {
			return a.InvoiceName < b.InvoiceName
		}
		return a.ID < b.ID
	})
}
