package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salescommission/internal/accounting"
	"github.com/smallbiznis/salescommission/internal/actorcontext"
	"github.com/smallbiznis/salescommission/internal/clock"
	"github.com/smallbiznis/salescommission/internal/commission"
	commissiondomain "github.com/smallbiznis/salescommission/internal/commission/domain"
	"github.com/smallbiznis/salescommission/internal/config"
	"github.com/smallbiznis/salescommission/internal/lock"
	"github.com/smallbiznis/salescommission/internal/migration"
	"github.com/smallbiznis/salescommission/internal/observability"
	"github.com/smallbiznis/salescommission/internal/seed"
	"github.com/smallbiznis/salescommission/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,
		accounting.Module,
		commission.Module,
		fx.Invoke(LoadDemoData),
	)

	ctx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	_ = app.Stop(ctx)
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// LoadDemoData migrates the schema, loads the demo dataset and runs one
// commission sync over it.
func LoadDemoData(conn *gorm.DB, cfg config.Config, genID *snowflake.Node, log *zap.Logger, svc commissiondomain.Service) error {
	if err := migration.Apply(conn, cfg.DBType); err != nil {
		return err
	}

	ctx := context.Background()
	created, err := seed.EnsureDemoData(ctx, conn, genID, log)
	if err != nil {
		return err
	}

	result := svc.RunCommissionSync(actorcontext.WithSystem(ctx))
	log.Info("seed.sync.finished",
		zap.Bool("demo_created", created),
		zap.Bool("success", result.Success),
		zap.String("detail", result.Detail),
		zap.Int64("commission_lines", result.Total),
	)
	if !result.Success {
		return errors.New(result.Detail)
	}
	return nil
}
