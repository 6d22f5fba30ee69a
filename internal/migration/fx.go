package migration

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountingdomain "github.com/smallbiznis/salescommission/internal/accounting/domain"
	commissiondomain "github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/internal/config"
	productdomain "github.com/smallbiznis/salescommission/internal/product/domain"
	"github.com/smallbiznis/salescommission/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node, log *zap.Logger) error {
		if err := Apply(conn, cfg.DBType); err != nil {
			return err
		}

		if cfg.SeedDemoData {
			if _, err := seed.EnsureDemoData(context.Background(), conn, genID, log); err != nil {
				return err
			}
		}
		return nil
	}),
)

// Apply migrates the schema with golang-migrate on postgres and falls back to
// gorm AutoMigrate for the local sqlite and mysql dialects.
func Apply(conn *gorm.DB, dbType string) error {
	if strings.EqualFold(strings.TrimSpace(dbType), "postgres") {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}
	return AutoMigrate(conn)
}

// AutoMigrate creates every table through gorm model tags.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&accountingdomain.Company{},
		&accountingdomain.User{},
		&productdomain.Product{},
		&accountingdomain.Invoice{},
		&accountingdomain.InvoiceLine{},
		&commissiondomain.CommissionLine{},
		&commissiondomain.SyncRun{},
	)
}
