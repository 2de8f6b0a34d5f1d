package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/verifield/fieldpay/internal/clock"
	"github.com/verifield/fieldpay/internal/config"
	"github.com/verifield/fieldpay/internal/migration"
	"github.com/verifield/fieldpay/internal/observability"
	"github.com/verifield/fieldpay/internal/server"
	"github.com/verifield/fieldpay/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		server.Module,
		migration.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		panic(err)
	}
	return node
}
