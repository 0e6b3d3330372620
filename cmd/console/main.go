package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agridynamic/admin-console/internal/api"
	"github.com/agridynamic/admin-console/internal/api/handler"
	"github.com/agridynamic/admin-console/internal/app"
	"github.com/agridynamic/admin-console/internal/infrastructure/config"
	"github.com/agridynamic/admin-console/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Service: "admin-console"})
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "admin-console"})

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()

	// Revalidate the persisted token in the background; admin routes answer
	// 503 until it settles.
	go func() {
		s := a.Sessions.Initialize(ctx)
		log.Info().Str("status", string(s.Status)).Str("demoted", string(s.Demoted)).Msg("session ready")
	}()

	e := api.NewRouter(api.Deps{
		Log:      log,
		Sessions: a.Sessions,
		Catalog:  a.Catalog,
		Resources: []handler.ResourceRoutes{
			handler.NewResourceHandler(a.Articles, log),
			handler.NewResourceHandler(a.Enquiries, log),
			handler.NewResourceHandler(a.Partners, log),
			handler.NewResourceHandler(a.Volunteers, log),
		},
		Readiness:     a.Readiness(),
		PublicSiteURL: cfg.Console.PublicSiteURL,
		RequireAdmin:  cfg.Console.RequireAdmin,
	})

	go func() {
		log.Info().Str("addr", cfg.Console.Addr).Str("api", cfg.API.BaseURL).Msg("console listening")
		if err := e.Start(cfg.Console.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
