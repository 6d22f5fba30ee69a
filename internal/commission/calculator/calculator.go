// Package calculator decides which invoice lines earn commission and how much.
// Everything here is pure: no I/O, no clock, no configuration lookups.
package calculator

import (
	"github.com/shopspring/decimal"
	accounting "github.com/smallbiznis/salescommission/internal/accounting/domain"
	"github.com/smallbiznis/salescommission/internal/commission/domain"
)

const amountDigits = 6

var hundred = decimal.NewFromInt(100)

type Options struct {
	// PostedOnly credits standard invoices as soon as they are posted.
	PostedOnly bool
	// TriggeringUserID is credited when the invoice names no salesperson.
	TriggeringUserID int64
}

// Result holds the target payloads keyed by invoice line id and the verdict
// for every evaluated line.
type Result struct {
	Targets map[int64]domain.Payload
	Reasons map[int64]domain.Reason
}

// IsStructuralCandidate reports whether a line can ever earn commission,
// independent of payment, rate and salesperson.
func IsStructuralCandidate(line accounting.CandidateLine) bool {
	if line.State != accounting.InvoiceStatePosted {
		return false
	}
	if !line.MoveType.IsCustomerDocument() {
		return false
	}
	if line.ProductID == nil || *line.ProductID == 0 {
		return false
	}
	return !line.IsDisplayLine()
}

// ResolveSalesperson picks the invoicing user, then the assigned user, then
// the triggering user.
func ResolveSalesperson(line accounting.CandidateLine, triggeringUserID int64) (int64, bool) {
	if line.InvoiceUserID != nil && *line.InvoiceUserID != 0 {
		return *line.InvoiceUserID, true
	}
	if line.UserID != nil && *line.UserID != 0 {
		return *line.UserID, true
	}
	if triggeringUserID != 0 {
		return triggeringUserID, true
	}
	return 0, false
}

// Amount returns |subtotal| * rate / 100 signed by the document kind only:
// positive for invoices and negative for credit notes, whatever the sign of
// the line subtotal.
func Amount(subtotal, rate decimal.Decimal, moveType accounting.MoveType) (amount, signedSubtotal decimal.Decimal) {
	signedSubtotal = subtotal.Abs()
	amount = signedSubtotal.Mul(rate).Div(hundred).Round(amountDigits)
	if moveType == accounting.MoveTypeOutRefund {
		amount = amount.Neg()
		signedSubtotal = signedSubtotal.Neg()
	}
	return amount, signedSubtotal
}

// Evaluate computes the payload for one line. The payload is only
// meaningful when the reason is ReasonEligible.
func Evaluate(line accounting.CandidateLine, opts Options) (domain.Payload, domain.Reason) {
	if !IsStructuralCandidate(line) {
		return domain.Payload{}, domain.ReasonNotCandidate
	}
	if !line.CommissionRate.IsPositive() {
		return domain.Payload{}, domain.ReasonNoCommissionRate
	}
	salespersonID, ok := ResolveSalesperson(line, opts.TriggeringUserID)
	if !ok {
		return domain.Payload{}, domain.ReasonNoSalesperson
	}
	if line.MoveType == accounting.MoveTypeOutInvoice && !opts.PostedOnly &&
		line.PaymentState != accounting.PaymentStatePaid {
		return domain.Payload{}, domain.ReasonAwaitingPayment
	}

	amount, subtotal := Amount(line.Subtotal, line.CommissionRate, line.MoveType)
	return domain.Payload{
		InvoiceID:        line.InvoiceID,
		InvoiceLineID:    line.LineID,
		ProductID:        *line.ProductID,
		SalespersonID:    salespersonID,
		CompanyID:        line.CompanyID,
		Quantity:         line.Quantity,
		CommissionRate:   line.CommissionRate,
		CommissionAmount: amount,
		PriceSubtotal:    subtotal,
		MoveType:         line.MoveType,
		InvoiceDate:      line.InvoiceDate,
		CurrencyCode:     line.CurrencyCode,
	}, domain.ReasonEligible
}

// Build evaluates every line.
func Build(lines []accounting.CandidateLine, opts Options) Result {
	res := Result{
		Targets: make(map[int64]domain.Payload, len(lines)),
		Reasons: make(map[int64]domain.Reason, len(lines)),
	}
	for _, line := range lines {
		payload, reason := Evaluate(line, opts)
		res.Reasons[line.LineID] = reason
		if reason == domain.ReasonEligible {
			res.Targets[line.LineID] = payload
		}
	}
	return res
}

// Count returns how many lines ended with each reason.
func (r Result) Count() map[domain.Reason]int {
	out := make(map[domain.Reason]int, 5)
	for _, reason := range r.Reasons {
		out[reason]++
	}
	return out
}
