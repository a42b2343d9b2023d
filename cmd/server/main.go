// Command server runs the campus assistant HTTP API.
//
// @title                       Campus Assistant API
// @version                     1.0
// @description                 Student and admin chat endpoints of the university portal assistant.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/campus-assistant/internal/config"
	httpapi "github.com/tbourn/campus-assistant/internal/http"
	"github.com/tbourn/campus-assistant/internal/llm"
	"github.com/tbourn/campus-assistant/internal/observability"
	"github.com/tbourn/campus-assistant/internal/repo"
	"github.com/tbourn/campus-assistant/internal/services"
	"github.com/tbourn/campus-assistant/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	logger := sysutil.NewLogger(os.Stdout, cfg.LogLevel, cfg.OTEL.ServiceName, cfg.LogPretty)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	modelName := cfg.Model.Name
	if cfg.Model.Mock {
		modelName = "echo"
	}
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, observability.BuildInfo{
		Version:     sysutil.FirstNonEmpty(version, "dev"),
		Environment: cfg.GinMode,
		Model:       modelName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("otel")
	}
	defer func() {
		if err := shutdownOTel.Within(5 * time.Second); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	gw, closeModel, err := newGateway(ctx, cfg.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("model gateway")
	}
	defer closeModel()

	// Startup check: only the final failure is logged, and the server
	// starts regardless so student history and schedules stay reachable.
	_ = services.Retry(ctx, services.RetryPolicy{Attempts: cfg.Model.CheckAttempts, Delay: cfg.Model.CheckDelay}, true,
		func(a services.Attempt) {
			log.Error().Err(a.Err).Int("attempts", a.Of).Str("model", modelName).
				Msg("model unreachable; check GEMINI_API_KEY and GEMINI_MODEL")
		}, gw.Ping)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, gw, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("model", modelName).Str("db", cfg.DB.Driver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newGateway returns the instrumented model gateway and its cleanup.
func newGateway(ctx context.Context, mc config.ModelConfig) (llm.Gateway, func(), error) {
	if mc.Mock {
		log.Warn().Msg("no GEMINI_API_KEY or LLM_MOCK set; using the local echo model")
		return llm.Instrument(llm.NewEcho(), "echo"), func() {}, nil
	}
	g, err := llm.NewGemini(ctx, mc.APIKey, mc.Name, mc.Timeout)
	if err != nil {
		return nil, nil, err
	}
	return llm.Instrument(g, mc.Name), func() { _ = g.Close() }, nil
}
