package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/sensorlog/internal/clock"
	"github.com/smallbiznis/sensorlog/internal/config"
	"github.com/smallbiznis/sensorlog/internal/migration"
	"github.com/smallbiznis/sensorlog/internal/observability"
	"github.com/smallbiznis/sensorlog/internal/server"
	"github.com/smallbiznis/sensorlog/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		server.Module,
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
