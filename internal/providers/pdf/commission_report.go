package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateCommissionReport(ctx context.Context, data CommissionReportData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, data.Title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(12,
		col.New(12).Add(
			text.New("Period: "+data.Period, props.Text{Top: 0, Size: 9, Align: align.Center}),
			text.New("Status: "+data.Filter, props.Text{Top: 5, Size: 9, Align: align.Center}),
		),
	)

	addSummary(m, data)

	for _, section := range data.Sections {
		addSection(m, section)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

var (
	headerText = props.Text{Style: fontstyle.Bold, Size: 9}
	cellText   = props.Text{Size: 8}
)

func right(p props.Text) props.Text {
	p.Align = align.Right
	return p
}

func addSummary(m core.Maroto, data CommissionReportData) {
	m.AddRow(10,
		text.NewCol(12, "Summary", props.Text{Size: 12, Style: fontstyle.Bold, Top: 3}),
	)
	m.AddRow(8,
		text.NewCol(4, "Salesperson", headerText),
		text.NewCol(2, "Total Sales", right(headerText)),
		text.NewCol(2, "Total Returns", right(headerText)),
		text.NewCol(2, "Net Sales", right(headerText)),
		text.NewCol(2, "Total Commission", right(headerText)),
	)
	m.AddRow(1, line.NewCol(12))

	for _, row := range data.Summary {
		m.AddRow(7, summaryCols(row.Salesperson, row, cellText)...)
	}

	m.AddRow(1, line.NewCol(12))
	bold := props.Text{Size: 8, Style: fontstyle.Bold}
	m.AddRow(8, summaryCols("GRAND TOTAL", data.GrandTotal, bold)...)
}

func summaryCols(label string, row SummaryRow, p props.Text) []core.Col {
	return []core.Col{
		text.NewCol(4, label, p),
		text.NewCol(2, row.TotalSales, right(p)),
		text.NewCol(2, row.TotalReturns, right(p)),
		text.NewCol(2, row.NetSales, right(p)),
		text.NewCol(2, row.TotalCommission, right(p)),
	}
}

func addSection(m core.Maroto, section Section) {
	m.AddRow(12,
		text.NewCol(12, section.Salesperson, props.Text{Size: 11, Style: fontstyle.Bold, Top: 5}),
	)
	m.AddRow(8,
		text.NewCol(1, "Date", headerText),
		text.NewCol(2, "Invoice", headerText),
		text.NewCol(3, "Product", headerText),
		text.NewCol(1, "Qty", right(headerText)),
		text.NewCol(2, "Subtotal", right(headerText)),
		text.NewCol(1, "Rate %", right(headerText)),
		text.NewCol(1, "Commission", right(headerText)),
		text.NewCol(1, "Type", headerText),
	)
	m.AddRow(1, line.NewCol(12))

	for _, l := range section.Lines {
		m.AddRow(7,
			text.NewCol(1, l.Date, cellText),
			text.NewCol(2, l.Invoice, cellText),
			text.NewCol(3, l.Product, cellText),
			text.NewCol(1, l.Quantity, right(cellText)),
			text.NewCol(2, l.Subtotal, right(cellText)),
			text.NewCol(1, l.Rate, right(cellText)),
			text.NewCol(1, l.Commission, right(cellText)),
			text.NewCol(1, l.Type, cellText),
		)
	}

	bold := props.Text{Size: 8, Style: fontstyle.Bold}
	m.AddRow(8,
		col.New(6),
		text.NewCol(1, "Total", bold),
		text.NewCol(2, section.Subtotal, right(bold)),
		col.New(1),
		text.NewCol(1, section.Commission, right(bold)),
		col.New(1),
	)
}
