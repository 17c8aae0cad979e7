package main

import (
	"github.com/dorhakim100/ZenefyBackend/internal/config"
	"github.com/dorhakim100/ZenefyBackend/internal/db"
	clog "github.com/dorhakim100/ZenefyBackend/internal/log"
	"github.com/dorhakim100/ZenefyBackend/internal/server"
	"github.com/dorhakim100/ZenefyBackend/internal/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	// main 函数负责加载配置、初始化日志、连接数据库并启动 Gin 服务。
	cfg := config.Load()
	clog.Init(cfg.Env)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validate")
	}

	gdb, err := db.Connect(cfg.MongoURL, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}

	hub := ws.NewHub()
	r := server.SetupRouter(cfg, gdb, hub)
	log.Info().Str("port", cfg.Port).Msg("server is running")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
