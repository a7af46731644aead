package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"trackswift/internal/ai"
	"trackswift/internal/auth"
	"trackswift/internal/config"
	"trackswift/internal/database"
	"trackswift/internal/handlers"
	"trackswift/internal/logger"
	"trackswift/internal/report"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logger")
	}
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DBDriver, cfg.DBDSN, cfg.DBConnectRetries, logger.WithComponent("database"))
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}

	var pdf report.Renderer
	if cfg.GotenbergURL != "" {
		gotenberg := report.NewClient(cfg.GotenbergURL, 30*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := gotenberg.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("url", cfg.GotenbergURL).Msg("gotenberg not reachable yet, PDF requests may fail")
		}
		cancel()
		pdf = gotenberg
	} else {
		log.Warn().Msg("GOTENBERG_URL not set, PDF reports are disabled")
	}

	agent := ai.NewAgent(cfg.GeminiAPIKey, cfg.GeminiModel, db, logger.WithComponent("assistant"))
	if !agent.Enabled() {
		log.Warn().Msg("GEMINI_API_KEY not set, assistant is disabled")
	}

	h := handlers.New(db, auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL), pdf, agent, handlers.Options{
		AllowRegistration: cfg.AllowRegistration,
		DefaultCurrency:   cfg.DefaultCurrency,
		CORSOrigins:       cfg.CORSOrigins,
		Production:        cfg.Production,
	}, logger.WithComponent("http"))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("base_url", cfg.BaseURL).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
