// Command server runs the excursion booking HTTP API.
//
//	@title			Excursion Booking API
//	@version		1.0
//	@description	Catalog, staff auth, feedback relay and YooKassa payments for an excursion storefront.
//	@BasePath		/api
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-excursion-backend/docs"
	"github.com/tbourn/go-excursion-backend/internal/config"
	httpapi "github.com/tbourn/go-excursion-backend/internal/http"
	"github.com/tbourn/go-excursion-backend/internal/observability"
	"github.com/tbourn/go-excursion-backend/internal/repo"
	"github.com/tbourn/go-excursion-backend/internal/sysutil"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

const shutdownGrace = 10 * time.Second

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	lg := sysutil.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	log.Logger = lg
	zerolog.DefaultContextLogger = &lg

	if err := run(cfg, lg); err != nil {
		lg.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, lg zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, Version, cfg.AppEnv)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			lg.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.DB, cfg.OTEL.Enabled)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, httpapi.Clients{})

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	lg.Info().
		Str("version", Version).
		Str("env", cfg.AppEnv).
		Str("db", cfg.DB.Driver).
		Str("base_path", cfg.APIBasePath).
		Msg("starting")
	return sysutil.Serve(ctx, srv, shutdownGrace, lg)
}
