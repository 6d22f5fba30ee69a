package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/salescommission/internal/clock"
	"github.com/smallbiznis/salescommission/internal/config"
	"github.com/smallbiznis/salescommission/internal/migration"
	"github.com/smallbiznis/salescommission/internal/observability"
	"github.com/smallbiznis/salescommission/internal/scheduler"
	"github.com/smallbiznis/salescommission/internal/server"
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
		migration.Module,

		// Registers the HTTP API and the commission, product and export services.
		server.Module,
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
