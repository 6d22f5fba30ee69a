package service

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	accounting "github.com/smallbiznis/salescommission/internal/accounting/domain"
	accountingrepo "github.com/smallbiznis/salescommission/internal/accounting/repository"
	"github.com/smallbiznis/salescommission/internal/clock"
	"github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/internal/commission/repository"
	"github.com/smallbiznis/salescommission/internal/config"
	"github.com/smallbiznis/salescommission/internal/lock"
	productdomain "github.com/smallbiznis/salescommission/internal/product/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var jan15 = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

type fixture struct {
	t         *testing.T
	db        *gorm.DB
	node      *snowflake.Node
	svc       *Service
	guard     *lock.LocalGuard
	policy    *config.CommissionConfigHolder
	clock     *clock.FakeClock
	companyID int64
}

type fixtureOption func(*config.Config, *config.CommissionConfig)

func withPostedOnly() fixtureOption {
	return func(_ *config.Config, c *config.CommissionConfig) { c.EligibilityPolicy = config.PolicyPostedOnly }
}

func withBatchSize(n int) fixtureOption {
	return func(_ *config.Config, c *config.CommissionConfig) { c.BatchSize = n }
}

func withFallbackSalesperson(id int64) fixtureOption {
	return func(cfg *config.Config, _ *config.CommissionConfig) { cfg.FallbackSalespersonID = id }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&accounting.Company{},
		&accounting.User{},
		&productdomain.Product{},
		&accounting.Invoice{},
		&accounting.InvoiceLine{},
		&domain.CommissionLine{},
		&domain.SyncRun{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{SyncLockTTL: time.Minute}
	policy := config.DefaultCommissionConfig()
	for _, opt := range opts {
		opt(&cfg, &policy)
	}
	holder := config.NewStaticCommissionConfigHolder(policy)
	guard := lock.NewLocalGuard()
	clk := clock.NewFakeClock(time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC))

	f := &fixture{
		t:      t,
		db:     db,
		node:   node,
		guard:  guard,
		policy: holder,
		clock:  clk,
	}
	f.svc = New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       repository.Provide(),
		Accounting: accountingrepo.Provide(),
		Config:     cfg,
		Policy:     holder,
		Guard:      guard,
		Clock:      clk,
	}).(*Service)

	f.companyID = node.Generate().Int64()
	require.NoError(t, db.Create(&accounting.Company{ID: f.companyID, Name: "Demo", CurrencyCode: "USD"}).Error)
	return f
}

func (f *fixture) user(name string) int64 {
	f.t.Helper()
	id := f.node.Generate().Int64()
	require.NoError(f.t, f.db.Create(&accounting.User{
		ID:    id,
		Name:  name,
		Login: strings.ToLower(name) + "@example.com",
		Role:  "salesperson",
	}).Error)
	return id
}

func (f *fixture) product(name, rate string) int64 {
	f.t.Helper()
	id := f.node.Generate().Int64()
	require.NoError(f.t, f.db.Create(&productdomain.Product{
		ID:             id,
		Code:           strings.ToUpper(name),
		Name:           name,
		CommissionRate: decimal.RequireFromString(rate),
		Active:         true,
	}).Error)
	return id
}

type invoiceParams struct {
	name         string
	moveType     accounting.MoveType
	state        accounting.InvoiceState
	paymentState accounting.PaymentState
	salesperson  int64
	date         time.Time
}

func (f *fixture) invoice(in invoiceParams) int64 {
	f.t.Helper()
	if in.moveType == "" {
		in.moveType = accounting.MoveTypeOutInvoice
	}
	if in.state == "" {
		in.state = accounting.InvoiceStatePosted
	}
	if in.paymentState == "" {
		in.paymentState = accounting.PaymentStatePaid
	}
	if in.date.IsZero() {
		in.date = jan15
	}
	id := f.node.Generate().Int64()
	inv := &accounting.Invoice{
		ID:           id,
		CompanyID:    f.companyID,
		Name:         in.name,
		MoveType:     in.moveType,
		State:        in.state,
		PaymentState: in.paymentState,
		InvoiceDate:  in.date,
	}
	if in.salesperson != 0 {
		sp := in.salesperson
		inv.InvoiceUserID = &sp
	}
	require.NoError(f.t, f.db.Create(inv).Error)
	return id
}

func (f *fixture) line(invoiceID, productID int64, qty, price string) int64 {
	f.t.Helper()
	id := f.node.Generate().Int64()
	q := decimal.RequireFromString(qty)
	p := decimal.RequireFromString(price)
	pid := productID
	require.NoError(f.t, f.db.Create(&accounting.InvoiceLine{
		ID:            id,
		InvoiceID:     invoiceID,
		ProductID:     &pid,
		Name:          "line",
		Quantity:      q,
		PriceUnit:     p,
		PriceSubtotal: q.Mul(p),
	}).Error)
	return id
}

func (f *fixture) setInvoice(id int64, column string, value any) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&accounting.Invoice{}).Where("id = ?", id).Update(column, value).Error)
}

func (f *fixture) records() []domain.CommissionLine {
	f.t.Helper()
	var out []domain.CommissionLine
	require.NoError(f.t, f.db.Order("invoice_line_id ASC").Find(&out).Error)
	return out
}
