package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salescommission/internal/accounting"
	"github.com/smallbiznis/salescommission/internal/authorization"
	"github.com/smallbiznis/salescommission/internal/clock"
	"github.com/smallbiznis/salescommission/internal/commission"
	"github.com/smallbiznis/salescommission/internal/config"
	"github.com/smallbiznis/salescommission/internal/lock"
	"github.com/smallbiznis/salescommission/internal/observability"
	"github.com/smallbiznis/salescommission/internal/scheduler"
	"github.com/smallbiznis/salescommission/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain services required by the sync job
		lock.Module,
		accounting.Module,
		authorization.Module,
		commission.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
