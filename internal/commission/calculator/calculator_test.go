package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	accounting "github.com/smallbiznis/salescommission/internal/accounting/domain"
	"github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(v int64) *int64 { return &v }

func paidLaptopLine() accounting.CandidateLine {
	return accounting.CandidateLine{
		LineID:         10,
		InvoiceID:      1,
		InvoiceName:    "INV/2024/0001",
		ProductID:      id(100),
		Quantity:       decimal.NewFromInt(3),
		Subtotal:       decimal.NewFromInt(4500),
		CommissionRate: decimal.NewFromInt(10),
		State:          accounting.InvoiceStatePosted,
		PaymentState:   accounting.PaymentStatePaid,
		MoveType:       accounting.MoveTypeOutInvoice,
		InvoiceUserID:  id(7),
		InvoiceDate:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CompanyID:      1,
		CurrencyCode:   "USD",
	}
}

func TestEvaluatePaidInvoice(t *testing.T) {
	payload, reason := Evaluate(paidLaptopLine(), Options{})
	require.Equal(t, domain.ReasonEligible, reason)
	assert.Equal(t, "450", payload.CommissionAmount.String())
	assert.Equal(t, "4500", payload.PriceSubtotal.String())
	assert.Equal(t, int64(7), payload.SalespersonID)
	assert.Equal(t, int64(100), payload.ProductID)
	assert.Equal(t, accounting.MoveTypeOutInvoice, payload.MoveType)
}

func TestEvaluateRefundNegatesAmountAndSubtotal(t *testing.T) {
	line := paidLaptopLine()
	line.MoveType = accounting.MoveTypeOutRefund
	line.PaymentState = accounting.PaymentStateNotPaid

	payload, reason := Evaluate(line, Options{})
	require.Equal(t, domain.ReasonEligible, reason)
	assert.Equal(t, "-450", payload.CommissionAmount.String())
	assert.Equal(t, "-4500", payload.PriceSubtotal.String())
}

func TestEvaluateReasons(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*accounting.CandidateLine)
		opts   Options
		want   domain.Reason
	}{
		{name: "draft", mutate: func(l *accounting.CandidateLine) { l.State = accounting.InvoiceStateDraft }, want: domain.ReasonNotCandidate},
		{name: "cancelled", mutate: func(l *accounting.CandidateLine) { l.State = accounting.InvoiceStateCancel }, want: domain.ReasonNotCandidate},
		{name: "vendor bill", mutate: func(l *accounting.CandidateLine) { l.MoveType = accounting.MoveTypeInInvoice }, want: domain.ReasonNotCandidate},
		{name: "no product", mutate: func(l *accounting.CandidateLine) { l.ProductID = nil }, want: domain.ReasonNotCandidate},
		{name: "section", mutate: func(l *accounting.CandidateLine) { l.DisplayType = accounting.DisplayTypeSection }, want: domain.ReasonNotCandidate},
		{name: "note", mutate: func(l *accounting.CandidateLine) { l.DisplayType = accounting.DisplayTypeNote }, want: domain.ReasonNotCandidate},
		{name: "zero rate", mutate: func(l *accounting.CandidateLine) { l.CommissionRate = decimal.Zero }, want: domain.ReasonNoCommissionRate},
		{name: "unpaid", mutate: func(l *accounting.CandidateLine) { l.PaymentState = accounting.PaymentStateNotPaid }, want: domain.ReasonAwaitingPayment},
		{name: "partial", mutate: func(l *accounting.CandidateLine) { l.PaymentState = accounting.PaymentStatePartial }, want: domain.ReasonAwaitingPayment},
		{name: "in payment", mutate: func(l *accounting.CandidateLine) { l.PaymentState = accounting.PaymentStateInPayment }, want: domain.ReasonAwaitingPayment},
		{name: "unpaid posted only", mutate: func(l *accounting.CandidateLine) { l.PaymentState = accounting.PaymentStateNotPaid }, opts: Options{PostedOnly: true}, want: domain.ReasonEligible},
		{name: "no salesperson", mutate: func(l *accounting.CandidateLine) { l.InvoiceUserID = nil }, want: domain.ReasonNoSalesperson},
		{name: "unpaid without salesperson", mutate: func(l *accounting.CandidateLine) {
			l.InvoiceUserID = nil
			l.PaymentState = accounting.PaymentStateNotPaid
		}, want: domain.ReasonNoSalesperson},
		{name: "triggering user", mutate: func(l *accounting.CandidateLine) { l.InvoiceUserID = nil }, opts: Options{TriggeringUserID: 9}, want: domain.ReasonEligible},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line := paidLaptopLine()
			tc.mutate(&line)
			_, reason := Evaluate(line, tc.opts)
			assert.Equal(t, tc.want, reason)
		})
	}
}

func TestResolveSalespersonOrder(t *testing.T) {
	line := paidLaptopLine()
	line.InvoiceUserID = id(1)
	line.UserID = id(2)

	got, ok := ResolveSalesperson(line, 3)
	require.True(t, ok)
	assert.Equal(t, int64(1), got)

	line.InvoiceUserID = nil
	got, _ = ResolveSalesperson(line, 3)
	assert.Equal(t, int64(2), got)

	line.UserID = nil
	got, _ = ResolveSalesperson(line, 3)
	assert.Equal(t, int64(3), got)

	_, ok = ResolveSalesperson(line, 0)
	assert.False(t, ok)
}

func TestAmountMagnitudeMatchesRate(t *testing.T) {
	rates := []string{"2", "3", "5", "7", "8", "10", "12.5", "0.0001"}
	subtotals := []string{"899", "1500", "120.50", "0.01", "1234567.89"}
	for _, r := range rates {
		for _, s := range subtotals {
			rate := decimal.RequireFromString(r)
			subtotal := decimal.RequireFromString(s)
			want := subtotal.Mul(rate).Div(decimal.NewFromInt(100)).Round(6)

			amount, signed := Amount(subtotal, rate, accounting.MoveTypeOutInvoice)
			assert.True(t, amount.Equal(want), "%s@%s", s, r)
			assert.True(t, signed.Equal(subtotal))

			refund, signedRefund := Amount(subtotal, rate, accounting.MoveTypeOutRefund)
			assert.True(t, refund.Equal(want.Neg()))
			assert.True(t, signedRefund.Equal(subtotal.Neg()))
		}
	}
}

func TestEvaluateNegativeLineFollowsDocumentKind(t *testing.T) {
	discount := paidLaptopLine()
	discount.Quantity = decimal.NewFromInt(1)
	discount.Subtotal = decimal.NewFromInt(-200)

	payload, reason := Evaluate(discount, Options{})
	require.Equal(t, domain.ReasonEligible, reason)
	assert.Equal(t, "20", payload.CommissionAmount.String())
	assert.Equal(t, "200", payload.PriceSubtotal.String())

	discount.MoveType = accounting.MoveTypeOutRefund
	payload, reason = Evaluate(discount, Options{})
	require.Equal(t, domain.ReasonEligible, reason)
	assert.Equal(t, "-20", payload.CommissionAmount.String())
	assert.Equal(t, "-200", payload.PriceSubtotal.String())
}

func TestBuildKeysTargetsByLine(t *testing.T) {
	eligible := paidLaptopLine()
	unpaid := paidLaptopLine()
	unpaid.LineID = 11
	unpaid.PaymentState = accounting.PaymentStateNotPaid
	zero := paidLaptopLine()
	zero.LineID = 12
	zero.CommissionRate = decimal.Zero

	res := Build([]accounting.CandidateLine{eligible, unpaid, zero}, Options{})
	require.Len(t, res.Targets, 1)
	assert.Contains(t, res.Targets, int64(10))
	assert.Equal(t, domain.ReasonAwaitingPayment, res.Reasons[11])
	assert.Equal(t, domain.ReasonNoCommissionRate, res.Reasons[12])
	assert.Equal(t, 1, res.Count()[domain.ReasonEligible])
}
