// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the
// HTTP server, the relational store, the generative model, chat sessions,
// rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "campus-assistant")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects and tunes the relational store.
type DBConfig struct {
	Driver       string        // sqlite|postgres
	Path         string        // SQLite file path
	URL          string        // Postgres DSN (DATABASE_URL)
	MaxOpenConns int           // pool upper bound
	MaxIdleConns int           // idle connections kept
	ConnMaxLife  time.Duration // recycle connections after this
}

// ModelConfig holds generative model settings.
type ModelConfig struct {
	APIKey          string        // GEMINI_API_KEY
	Name            string        // GEMINI_MODEL
	Mock            bool          // LLM_MOCK: use the local echo model
	Timeout         time.Duration // per-call deadline
	Temperature     float32
	TopP            float32
	TopK            int32
	MaxOutputTokens int32
	CheckAttempts   int           // startup connectivity attempts
	CheckDelay      time.Duration // delay between attempts
}

// ChatConfig holds session and prompt limits.
type ChatConfig struct {
	StudentHistoryCap int  // persisted turns folded into a prompt
	AdminHistoryCap   int  // in-memory turns kept per admin
	DegradeOnFetchErr bool // answer with partial context instead of failing
	MaxPromptRunes    int  // max accepted message length
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s, must outlast the model deadline
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Auth
	JWTSecret string // HMAC secret shared with the portal's login service

	DB    DBConfig
	Model ModelConfig
	Chat  ChatConfig

	// Rate limiting
	RateRPS         float64       // per-identity tokens per second (>= 0)
	RateBurst       int           // per-identity bucket size (>= 1)
	AdminRateLimit  int           // admin chat requests per window, shared
	AdminRateWindow time.Duration // admin chat window

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		JWTSecret: getenv("JWT_SECRET", ""),

		DB: DBConfig{
			Driver:       strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:         getenv("DB_PATH", "app.db"),
			URL:          getenv("DATABASE_URL", ""),
			MaxOpenConns: getint("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getint("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLife:  getdur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},

		Model: ModelConfig{
			APIKey:          getenv("GEMINI_API_KEY", ""),
			Name:            getenv("GEMINI_MODEL", "gemini-2.0-flash"),
			Mock:            getbool("LLM_MOCK", false),
			Timeout:         getdur("MODEL_TIMEOUT", 30*time.Second),
			Temperature:     float32(getfloat("MODEL_TEMPERATURE", 1.0)),
			TopP:            float32(getfloat("MODEL_TOP_P", 0.95)),
			TopK:            int32(getint("MODEL_TOP_K", 40)),
			MaxOutputTokens: int32(getint("MODEL_MAX_OUTPUT_TOKENS", 8192)),
			CheckAttempts:   getint("MODEL_CHECK_ATTEMPTS", 5),
			CheckDelay:      getdur("MODEL_CHECK_DELAY", time.Second),
		},

		Chat: ChatConfig{
			StudentHistoryCap: getint("STUDENT_HISTORY_CAP", 5),
			AdminHistoryCap:   getint("ADMIN_HISTORY_CAP", 10),
			DegradeOnFetchErr: getbool("CHAT_DEGRADE_ON_FETCH_ERROR", false),
			MaxPromptRunes:    getint("MAX_PROMPT_RUNES", 4000),
		},

		// Rate limiting
		RateRPS:         getfloat("RATE_RPS", 5.0),
		RateBurst:       getint("RATE_BURST", 10),
		AdminRateLimit:  getint("ADMIN_RATE_LIMIT", 30),
		AdminRateWindow: getdur("ADMIN_RATE_WINDOW", 60*time.Second),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "campus-assistant"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" || cfg.DB.Driver == "pg" {
		cfg.DB.Driver = "postgres"
	}
	// Without a key there is nothing to call; fall back to the local model.
	if strings.TrimSpace(cfg.Model.APIKey) == "" {
		cfg.Model.Mock = true
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return cfg, errors.New("JWT_SECRET must not be empty")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL must be set when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.DB.MaxOpenConns < 1 || cfg.DB.MaxIdleConns < 0 {
		return cfg, errors.New("DB_MAX_OPEN_CONNS must be >= 1 and DB_MAX_IDLE_CONNS >= 0")
	}
	if strings.TrimSpace(cfg.Model.Name) == "" {
		return cfg, errors.New("GEMINI_MODEL must not be empty")
	}
	if cfg.Model.Timeout <= 0 {
		return cfg, errors.New("MODEL_TIMEOUT must be > 0")
	}
	if cfg.Model.Temperature < 0 || cfg.Model.Temperature > 2 {
		return cfg, errors.New("MODEL_TEMPERATURE must be in [0,2]")
	}
	if cfg.Model.TopP < 0 || cfg.Model.TopP > 1 {
		return cfg, errors.New("MODEL_TOP_P must be in [0,1]")
	}
	if cfg.Model.TopK < 1 || cfg.Model.MaxOutputTokens < 1 {
		return cfg, errors.New("MODEL_TOP_K and MODEL_MAX_OUTPUT_TOKENS must be >= 1")
	}
	if cfg.Model.CheckAttempts < 1 || cfg.Model.CheckDelay < 0 {
		return cfg, errors.New("MODEL_CHECK_ATTEMPTS must be >= 1 and MODEL_CHECK_DELAY >= 0")
	}
	if cfg.Chat.StudentHistoryCap < 1 || cfg.Chat.AdminHistoryCap < 1 {
		return cfg, errors.New("history caps must be >= 1")
	}
	if cfg.Chat.MaxPromptRunes < 1 {
		return cfg, errors.New("MAX_PROMPT_RUNES must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.AdminRateLimit < 1 || cfg.AdminRateWindow <= 0 {
		return cfg, errors.New("ADMIN_RATE_LIMIT must be >= 1 and ADMIN_RATE_WINDOW > 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
