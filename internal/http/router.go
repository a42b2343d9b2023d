// Package httpapi wires the HTTP transport (Gin) to the chat services,
// middleware and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, redacted access logs, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency and rate
// limiting.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/campus-assistant/docs"
	"github.com/tbourn/campus-assistant/internal/config"
	"github.com/tbourn/campus-assistant/internal/history"
	"github.com/tbourn/campus-assistant/internal/http/handlers"
	"github.com/tbourn/campus-assistant/internal/http/middleware"
	"github.com/tbourn/campus-assistant/internal/llm"
	"github.com/tbourn/campus-assistant/internal/repo"
	"github.com/tbourn/campus-assistant/internal/services"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// RegisterRoutes attaches all middleware and endpoints to r and wires the
// chat services over db and gw.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: redacted access log, request-scoped logger
//  4. Recovery: capture panics after logger
//  5. Body size limit
//  6. Metrics
//  7. CORS, compression and security headers
//
// Per group, authentication runs first, then idempotency (so a replay can
// bypass the limiter), then the rate limiter.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, gw llm.Gateway, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key", "X-Goog-Api-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(middleware.BodyLimit(maxBodyBytes))
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", health(db))

	apiBase := cfg.APIBasePath
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = apiBase
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := newHandlers(db, gw, cfg)
	auth := middleware.NewAuthenticator(cfg.JWTSecret)

	api := groupWithPrefix(r, apiBase)

	// Connectivity check stays reachable without a token.
	api.GET("/admin/chat/test", h.AdminTest)

	student := api.Group("")
	{
		limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
		limiter.Name = "student"
		student.Use(auth.Require(false), limiter.Handler())

		student.POST("/chat", h.PostChat)
		student.GET("/chat/history", h.GetChatHistory)
		student.GET("/thoikhoabieu", h.GetTimetable)
	}

	admin := api.Group("/admin/chat")
	{
		limiter := middleware.NewWindowLimiter(cfg.AdminRateLimit, cfg.AdminRateWindow, middleware.KeyGlobal())
		limiter.Name = "admin"
		admin.Use(
			auth.Require(true),
			middleware.IdempotencyValidator(
				middleware.IdempotencyOptions{Scope: services.ScheduleAddScope, MaxLen: 200, Applies: isScheduleSubmit},
				func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
					rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
					if err != nil || rec == nil {
						return false, nil
					}
					return true, nil
				},
			),
			limiter.Handler(),
		)

		admin.POST("", h.AdminChat)
		admin.GET("/history", h.AdminHistory)
		admin.DELETE("/history", h.ClearAdminHistory)
		admin.GET("/schedules", h.ListSchedules)
		admin.DELETE("/schedules", h.DeleteSchedule)
	}
}

func newHandlers(db *gorm.DB, gw llm.Gateway, cfg config.Config) *handlers.Handlers {
	gen := llm.GenerationConfig{
		Temperature:     cfg.Model.Temperature,
		TopP:            cfg.Model.TopP,
		TopK:            cfg.Model.TopK,
		MaxOutputTokens: cfg.Model.MaxOutputTokens,
	}
	schedules := services.NewScheduleService(db)

	student := services.NewStudentChatService(db, gw, history.NewTurnStore(db, cfg.Chat.StudentHistoryCap), cfg.Chat.StudentHistoryCap, gen)
	student.MaxPromptRunes = cfg.Chat.MaxPromptRunes
	student.DegradeOnFetchErr = cfg.Chat.DegradeOnFetchErr

	admin := &services.AdminChatService{
		DB:             db,
		Gateway:        gw,
		Sessions:       history.NewMemoryStore(cfg.Chat.AdminHistoryCap),
		Schedules:      schedules,
		Gen:            gen,
		HistoryCap:     cfg.Chat.AdminHistoryCap,
		MaxPromptRunes: cfg.Chat.MaxPromptRunes,
		SubmitEndpoint: strings.TrimRight(cfg.APIBasePath, "/") + "/admin/chat",
		IdempotencyTTL: cfg.IdempotencyTTL,
		CheckPolicy:    services.RetryPolicy{Attempts: cfg.Model.CheckAttempts, Delay: cfg.Model.CheckDelay},
	}
	return handlers.New(student, admin, schedules)
}

// isScheduleSubmit reports whether an admin chat body carries the submit
// sentinel. The body is restored for the handler.
func isScheduleSubmit(c *gin.Context) bool {
	if c.Request.Method != http.MethodPost || c.Request.Body == nil {
		return false
	}
	orig := c.Request.Body
	raw, err := io.ReadAll(orig)
	if err != nil {
		c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), orig))
		return false
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return false
	}
	return services.Classify(body.Message).Kind == services.SubmitScheduleCommand
}

// health reports liveness and whether the store answers a ping.
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// corsMiddleware allows every origin when none is configured, otherwise
// only the allowlist.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After", "ETag", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// Set ACAO even for requests without an Origin header.
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{cors.New(base)}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
