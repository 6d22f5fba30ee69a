// Package reconcile diffs existing commission lines against the target set
// produced by the calculator.
package reconcile

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/salescommission/internal/commission/domain"
)

type Tolerance struct {
	QuantityDigits int32
	RateDigits     int32
	// MoneyDigits returns the rounding precision for a currency code.
	MoneyDigits func(currency string) int32
}

func (t Tolerance) moneyDigits(currency string) int32 {
	if t.MoneyDigits == nil {
		return 2
	}
	return t.MoneyDigits(currency)
}

// Update carries only the columns that differ.
type Update struct {
	ID            int64
	InvoiceLineID int64
	Fields        map[string]any
}

type Plan struct {
	Creates  []domain.Payload
	Updates  []Update
	Deletes  []int64
	Retained int
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// Build computes the changes that make existing match targets. Lines that
// exist but are only awaiting payment are kept untouched. Targets is not
// modified.
func Build(targets map[int64]domain.Payload, reasons map[int64]domain.Reason, existing []domain.CommissionLine, tol Tolerance) Plan {
	remaining := make(map[int64]domain.Payload, len(targets))
	for k, v := range targets {
		remaining[k] = v
	}

	var plan Plan
	for _, rec := range existing {
		payload, ok := remaining[rec.InvoiceLineID]
		if !ok {
			if reasons[rec.InvoiceLineID] == domain.ReasonAwaitingPayment {
				plan.Retained++
				continue
			}
			plan.Deletes = append(plan.Deletes, rec.ID)
			continue
		}
		delete(remaining, rec.InvoiceLineID)

		if fields := Diff(rec, payload, tol); len(fields) > 0 {
			plan.Updates = append(plan.Updates, Update{
				ID:            rec.ID,
				InvoiceLineID: rec.InvoiceLineID,
				Fields:        fields,
			})
		}
	}

	plan.Creates = make([]domain.Payload, 0, len(remaining))
	for _, payload := range remaining {
		plan.Creates = append(plan.Creates, payload)
	}
	sort.Slice(plan.Creates, func(i, j int) bool {
		return plan.Creates[i].InvoiceLineID < plan.Creates[j].InvoiceLineID
	})
	sort.Slice(plan.Updates, func(i, j int) bool {
		return plan.Updates[i].InvoiceLineID < plan.Updates[j].InvoiceLineID
	})
	sort.Slice(plan.Deletes, func(i, j int) bool { return plan.Deletes[i] < plan.Deletes[j] })

	return plan
}

// Diff returns the columns of rec that differ from payload beyond rounding.
func Diff(rec domain.CommissionLine, payload domain.Payload, tol Tolerance) map[string]any {
	fields := map[string]any{}

	if rec.SalespersonID != payload.SalespersonID {
		fields["salesperson_id"] = payload.SalespersonID
	}
	if rec.InvoiceID != payload.InvoiceID {
		fields["invoice_id"] = payload.InvoiceID
	}
	if rec.ProductID != payload.ProductID {
		fields["product_id"] = payload.ProductID
	}
	if rec.CompanyID != payload.CompanyID {
		fields["company_id"] = payload.CompanyID
	}
	if rec.MoveType != payload.MoveType {
		fields["move_type"] = payload.MoveType
	}
	if rec.CurrencyCode != payload.CurrencyCode {
		fields["currency_code"] = payload.CurrencyCode
	}
	if !sameDay(rec, payload) {
		fields["invoice_date"] = payload.InvoiceDate
	}
	if !equalWithin(rec.Quantity, payload.Quantity, tol.QuantityDigits) {
		fields["quantity"] = payload.Quantity
	}
	if !equalWithin(rec.CommissionRate, payload.CommissionRate, tol.RateDigits) {
		fields["commission_rate"] = payload.CommissionRate
	}
	money := tol.moneyDigits(payload.CurrencyCode)
	if !equalWithin(rec.CommissionAmount, payload.CommissionAmount, money) {
		fields["commission_amount"] = payload.CommissionAmount
	}
	if !equalWithin(rec.PriceSubtotal, payload.PriceSubtotal, money) {
		fields["price_subtotal"] = payload.PriceSubtotal
	}

	return fields
}

func equalWithin(a, b decimal.Decimal, digits int32) bool {
	return a.Round(digits).Equal(b.Round(digits))
}

func sameDay(rec domain.CommissionLine, payload domain.Payload) bool {
	ay, am, ad := rec.InvoiceDate.Date()
	by, bm, bd := payload.InvoiceDate.Date()
	return ay == by && am == bm && ad == bd
}
