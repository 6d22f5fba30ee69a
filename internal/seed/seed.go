package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountingdomain "github.com/smallbiznis/salescommission/internal/accounting/domain"
	productdomain "github.com/smallbiznis/salescommission/internal/product/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	demoCompanyName = "Demo Company"
	demoCurrency    = "USD"
)

type demoUser struct {
	key   string
	name  string
	login string
	role  string
}

var demoUsers = []demoUser{
	{key: "admin", name: "Commission Admin", login: "admin@demo.local", role: "admin"},
	{key: "john", name: "John Smith", login: "john@demo.local", role: "salesperson"},
	{key: "sarah", name: "Sarah Johnson", login: "sarah@demo.local", role: "salesperson"},
	{key: "mike", name: "Mike Wilson", login: "mike@demo.local", role: "salesperson"},
}

type demoProduct struct {
	code string
	name string
	rate string
}

var demoProducts = []demoProduct{
	{code: "DEMO-LAPTOP", name: "Laptop", rate: "10"},
	{code: "DEMO-SMARTPHONE", name: "Smartphone", rate: "8"},
	{code: "DEMO-TABLET", name: "Tablet", rate: "7"},
	{code: "DEMO-MONITOR", name: "Monitor", rate: "5"},
	{code: "DEMO-KEYBOARD", name: "Keyboard", rate: "3"},
	{code: "DEMO-MOUSE", name: "Mouse", rate: "2"},
	{code: "DEMO-CONSULTING", name: "Consulting", rate: "0"},
}

type demoLine struct {
	product   string
	quantity  int64
	priceUnit int64
}

type demoInvoice struct {
	name         string
	salesperson  string
	moveType     accountingdomain.MoveType
	state        accountingdomain.InvoiceState
	paymentState accountingdomain.PaymentState
	daysAgo      int
	lines        []demoLine
}

var demoInvoices = []demoInvoice{
	{
		name: "INV/DEMO/0001", salesperson: "john", daysAgo: 15,
		moveType: accountingdomain.MoveTypeOutInvoice, state: accountingdomain.InvoiceStatePosted,
		paymentState: accountingdomain.PaymentStatePaid,
		lines:        []demoLine{{"DEMO-LAPTOP", 3, 1500}, {"DEMO-MONITOR", 3, 450}},
	},
	{
		name: "INV/DEMO/0002", salesperson: "sarah", daysAgo: 10,
		moveType: accountingdomain.MoveTypeOutInvoice, state: accountingdomain.InvoiceStatePosted,
		paymentState: accountingdomain.PaymentStateNotPaid,
		lines:        []demoLine{{"DEMO-SMARTPHONE", 10, 899}, {"DEMO-TABLET", 5, 650}},
	},
	{
		name: "INV/DEMO/0003", salesperson: "mike", daysAgo: 8,
		moveType: accountingdomain.MoveTypeOutInvoice, state: accountingdomain.InvoiceStatePosted,
		paymentState: accountingdomain.PaymentStatePaid,
		lines:        []demoLine{{"DEMO-KEYBOARD", 20, 120}, {"DEMO-MOUSE", 20, 45}},
	},
	{
		name: "INV/DEMO/0004", salesperson: "john", daysAgo: 5,
		moveType: accountingdomain.MoveTypeOutInvoice, state: accountingdomain.InvoiceStatePosted,
		paymentState: accountingdomain.PaymentStateNotPaid,
		lines:        []demoLine{{"DEMO-TABLET", 15, 650}},
	},
	{
		name: "INV/DEMO/0005", salesperson: "sarah", daysAgo: 3,
		moveType: accountingdomain.MoveTypeOutInvoice, state: accountingdomain.InvoiceStatePosted,
		paymentState: accountingdomain.PaymentStatePaid,
		lines:        []demoLine{{"DEMO-LAPTOP", 5, 1500}, {"DEMO-MONITOR", 5, 450}, {"DEMO-KEYBOARD", 5, 120}},
	},
	{
		name: "INV/DEMO/0006", salesperson: "mike", daysAgo: 1,
		moveType: accountingdomain.MoveTypeOutInvoice, state: accountingdomain.InvoiceStatePosted,
		paymentState: accountingdomain.PaymentStateNotPaid,
		lines:        []demoLine{{"DEMO-SMARTPHONE", 8, 899}, {"DEMO-TABLET", 2, 650}},
	},
	{
		name: "INV/DEMO/0007", salesperson: "john", daysAgo: 2,
		moveType: accountingdomain.MoveTypeOutInvoice, state: accountingdomain.InvoiceStatePosted,
		paymentState: accountingdomain.PaymentStatePartial,
		lines:        []demoLine{{"DEMO-LAPTOP", 2, 1500}},
	},
	{
		name: "RINV/DEMO/0001", salesperson: "mike", daysAgo: 2,
		moveType: accountingdomain.MoveTypeOutRefund, state: accountingdomain.InvoiceStatePosted,
		paymentState: accountingdomain.PaymentStatePaid,
		lines:        []demoLine{{"DEMO-KEYBOARD", 3, 120}},
	},
	{
		name: "INV/DEMO/0008", salesperson: "sarah", daysAgo: 1,
		moveType: accountingdomain.MoveTypeOutInvoice, state: accountingdomain.InvoiceStatePosted,
		paymentState: accountingdomain.PaymentStatePaid,
		lines:        []demoLine{{"DEMO-CONSULTING", 5, 200}, {"DEMO-LAPTOP", 1, 1500}},
	},
	{
		name: "INV/DEMO/0009", salesperson: "john", daysAgo: 4,
		moveType: accountingdomain.MoveTypeOutInvoice, state: accountingdomain.InvoiceStateCancel,
		paymentState: accountingdomain.PaymentStateNotPaid,
		lines:        []demoLine{{"DEMO-SMARTPHONE", 4, 899}},
	},
}

// DemoProductCodes lists the product codes created by EnsureDemoData.
func DemoProductCodes() []string {
	codes := make([]string, 0, len(demoProducts))
	for _, p := range demoProducts {
		codes = append(codes, p.code)
	}
	return codes
}

// EnsureDemoData loads the demo company, salespersons, products and invoices.
// It reports false without writing anything when the demo products already
// exist.
func EnsureDemoData(ctx context.Context, db *gorm.DB, genID *snowflake.Node, log *zap.Logger) (bool, error) {
	return ensureDemoData(ctx, db, genID, log, time.Now().UTC())
}

func ensureDemoData(ctx context.Context, db *gorm.DB, genID *snowflake.Node, log *zap.Logger, now time.Time) (bool, error) {
	if db == nil {
		return false, errors.New("seed database handle is required")
	}
	if genID == nil {
		return false, errors.New("seed id generator is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("seed.demo")

	var existing int64
	if err := db.WithContext(ctx).
		Model(&productdomain.Product{}).
		Where("code IN ?", DemoProductCodes()).
		Count(&existing).Error; err != nil {
		return false, err
	}
	if existing > 0 {
		log.Info("seed.demo.skipped", zap.Int64("existing_products", existing))
		return false, nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company := accountingdomain.Company{
			ID:           genID.Generate().Int64(),
			Name:         demoCompanyName,
			CurrencyCode: demoCurrency,
			CreatedAt:    now,
		}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}

		users := make(map[string]int64, len(demoUsers))
		for _, u := range demoUsers {
			user := accountingdomain.User{
				ID:        genID.Generate().Int64(),
				CompanyID: &company.ID,
				Name:      u.name,
				Login:     u.login,
				Role:      u.role,
				Active:    true,
				CreatedAt: now,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			users[u.key] = user.ID
		}

		products := make(map[string]int64, len(demoProducts))
		for _, p := range demoProducts {
			product := productdomain.Product{
				ID:             genID.Generate().Int64(),
				Code:           p.code,
				Name:           p.name,
				CommissionRate: decimal.RequireFromString(p.rate),
				Active:         true,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.Create(&product).Error; err != nil {
				return err
			}
			products[p.code] = product.ID
		}

		for _, inv := range demoInvoices {
			salespersonID := users[inv.salesperson]
			invoice := accountingdomain.Invoice{
				ID:            genID.Generate().Int64(),
				CompanyID:     company.ID,
				Name:          inv.name,
				MoveType:      inv.moveType,
				State:         inv.state,
				PaymentState:  inv.paymentState,
				InvoiceDate:   today.AddDate(0, 0, -inv.daysAgo),
				InvoiceUserID: &salespersonID,
				CurrencyCode:  demoCurrency,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Create(&invoice).Error; err != nil {
				return err
			}

			for _, l := range inv.lines {
				productID, ok := products[l.product]
				if !ok {
					return fmt.Errorf("unknown demo product %s", l.product)
				}
				qty := decimal.NewFromInt(l.quantity)
				price := decimal.NewFromInt(l.priceUnit)
				line := accountingdomain.InvoiceLine{
					ID:            genID.Generate().Int64(),
					InvoiceID:     invoice.ID,
					ProductID:     &productID,
					Name:          l.product,
					Quantity:      qty,
					PriceUnit:     price,
					PriceSubtotal: qty.Mul(price),
					CreatedAt:     now,
				}
				if err := tx.Create(&line).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Error("seed.demo.failed", zap.Error(err))
		return false, err
	}

	log.Info("seed.demo.created",
		zap.Int("users", len(demoUsers)),
		zap.Int("products", len(demoProducts)),
		zap.Int("invoices", len(demoInvoices)),
	)
	return true, nil
}
