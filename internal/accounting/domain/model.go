package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceState is the lifecycle state of an invoice.
type InvoiceState string

const (
	InvoiceStateDraft  InvoiceState = "draft"
	InvoiceStatePosted InvoiceState = "posted"
	InvoiceStateCancel InvoiceState = "cancel"
)

// PaymentState tracks how much of a posted invoice has been settled.
type PaymentState string

const (
	PaymentStateNotPaid   PaymentState = "not_paid"
	PaymentStatePartial   PaymentState = "partial"
	PaymentStateInPayment PaymentState = "in_payment"
	PaymentStatePaid      PaymentState = "paid"
	PaymentStateReversed  PaymentState = "reversed"
)

// MoveType is the accounting document kind.
type MoveType string

const (
	MoveTypeOutInvoice MoveType = "out_invoice"
	MoveTypeOutRefund  MoveType = "out_refund"
	MoveTypeInInvoice  MoveType = "in_invoice"
	MoveTypeInRefund   MoveType = "in_refund"
	MoveTypeEntry      MoveType = "entry"
)

// IsCustomerDocument reports whether the kind earns or reverses commission.
func (m MoveType) IsCustomerDocument() bool {
	return m == MoveTypeOutInvoice || m == MoveTypeOutRefund
}

// Label is the human readable kind used in reports.
func (m MoveType) Label() string {
	if m == MoveTypeOutRefund {
		return "Refund"
	}
	return "Invoice"
}

const (
	DisplayTypeProduct = ""
	DisplayTypeSection = "line_section"
	DisplayTypeNote    = "line_note"
)

type Company struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:text;not null"`
	CurrencyCode string    `json:"currency_code" gorm:"type:text;not null;default:USD"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Company) TableName() string { return "companies" }

type User struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	CompanyID *int64    `json:"company_id,omitempty" gorm:"column:company_id"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	Login     string    `json:"login" gorm:"type:text;not null;uniqueIndex:ux_users_login"`
	Role      string    `json:"role" gorm:"type:text;not null;default:salesperson"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

type Invoice struct {
	ID            int64        `json:"id" gorm:"primaryKey"`
	CompanyID     int64        `json:"company_id" gorm:"not null"`
	Name          string       `json:"name" gorm:"type:text;not null"`
	MoveType      MoveType     `json:"move_type" gorm:"type:text;not null"`
	State         InvoiceState `json:"state" gorm:"type:text;not null;default:draft;index:idx_invoices_state_date,priority:1"`
	PaymentState  PaymentState `json:"payment_state" gorm:"type:text;not null;default:not_paid"`
	InvoiceDate   time.Time    `json:"invoice_date" gorm:"type:date;not null;index:idx_invoices_state_date,priority:2"`
	InvoiceUserID *int64       `json:"invoice_user_id,omitempty"`
	UserID        *int64       `json:"user_id,omitempty"`
	CurrencyCode  string       `json:"currency_code" gorm:"type:text;not null;default:''"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Invoice) TableName() string { return "invoices" }

type InvoiceLine struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	InvoiceID     int64           `json:"invoice_id" gorm:"not null;index:idx_invoice_lines_invoice"`
	ProductID     *int64          `json:"product_id,omitempty"`
	Name          string          `json:"name" gorm:"type:text;not null;default:''"`
	DisplayType   string          `json:"display_type" gorm:"type:text;not null;default:''"`
	Quantity      decimal.Decimal `json:"quantity" gorm:"type:numeric(20,6);not null;default:0"`
	PriceUnit     decimal.Decimal `json:"price_unit" gorm:"type:numeric(20,6);not null;default:0"`
	PriceSubtotal decimal.Decimal `json:"price_subtotal" gorm:"type:numeric(20,6);not null;default:0"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (InvoiceLine) TableName() string { return "invoice_lines" }

// CandidateLine is an invoice line joined with its parent invoice and
// product, as read by the commission sync.
type CandidateLine struct {
	LineID         int64
	InvoiceID      int64
	InvoiceName    string
	ProductID      *int64
	DisplayType    string
	Quantity       decimal.Decimal
	Subtotal       decimal.Decimal
	CommissionRate decimal.Decimal
	State          InvoiceState
	PaymentState   PaymentState
	MoveType       MoveType
	InvoiceUserID  *int64
	UserID         *int64
	InvoiceDate    time.Time
	CompanyID      int64
	CurrencyCode   string
}

// IsDisplayLine reports whether the line is a section or note.
func (c CandidateLine) IsDisplayLine() bool {
	return c.DisplayType != DisplayTypeProduct
}
