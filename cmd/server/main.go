package main

import (
	"github.com/rs/zerolog/log"

	"go-vnicmap/internal/app"
	"go-vnicmap/internal/config"
	"go-vnicmap/internal/db"
	"go-vnicmap/internal/logging"
	"go-vnicmap/internal/web"
)

func main() {
	// Load .env if exists
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := logging.Init(logging.Config{Level: cfg.Log.Level, Output: cfg.Log.Output}); err != nil {
		log.Fatal().Err(err).Msg("invalid log configuration")
	}
	if err := cfg.ValidateCredentials(); err != nil {
		log.Fatal().Err(err).Msg("credentials missing")
	}

	store, err := db.Open(cfg.Web.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Web.DBPath).Msg("failed to open database")
	}
	defer store.Close()

	mapper, err := app.NewMapper(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build intersight client")
	}

	server := web.NewApp(store, mapper.MapTarget, cfg.FetchTimeout)

	addr := cfg.Web.Host + ":" + cfg.Web.Port
	log.Info().Str("addr", addr).Str("esxi_source", cfg.ESXi.Source).Msg("server running")
	if err := server.Listen(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}
