package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/campus-assistant/internal/config"
	"github.com/tbourn/campus-assistant/internal/domain"
	"github.com/tbourn/campus-assistant/internal/http/middleware"
	"github.com/tbourn/campus-assistant/internal/llm"
	"github.com/tbourn/campus-assistant/internal/repo"
	"github.com/tbourn/campus-assistant/internal/services"
)

const testSecret = "router-secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := db.Create(&domain.Student{ID: "SV001", Name: "An"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:     "/api",
		JWTSecret:       testSecret,
		RateRPS:         100,
		RateBurst:       10,
		AdminRateLimit:  30,
		AdminRateWindow: time.Minute,
		IdempotencyTTL:  time.Hour,
		Chat:            config.ChatConfig{StudentHistoryCap: 5, AdminHistoryCap: 5, MaxPromptRunes: 500},
		Model:           config.ModelConfig{CheckAttempts: 2},
		OTEL:            config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	r, _ := newRouterWithDB(t, cfg)
	return r
}

func newRouterWithDB(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	r := gin.New()
	RegisterRoutes(r, db, llm.NewEcho(), cfg)
	return r, db
}

func bearer(t *testing.T, c middleware.Claims) string {
	t.Helper()
	tok, err := middleware.NewAuthenticator(testSecret).Sign(c)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + tok
}

func serve(r http.Handler, method, path, body, auth string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_Ops(t *testing.T) {
	r := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}

	w = serve(r, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	if w = serve(r, http.MethodGet, "/nope", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w = serve(r, http.MethodPost, "/health", "", ""); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSAllowlist(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://portal.example.edu"}}
	r := newRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://portal.example.edu")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://portal.example.edu" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_AuthBoundaries(t *testing.T) {
	r := newRouter(t, testConfig())
	student := bearer(t, middleware.Claims{StudentID: "SV001"})

	if w := serve(r, http.MethodPost, "/api/chat", `{"message":"hi"}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous chat = %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/api/admin/chat", `{"message":"hi"}`, student); w.Code != http.StatusForbidden {
		t.Fatalf("student on admin = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/admin/chat/test", "", ""); w.Code != http.StatusOK {
		t.Fatalf("admin test route = %d", w.Code)
	}

	// Identities without a student row never reach the model.
	for name, tok := range map[string]string{
		"admin":        bearer(t, middleware.Claims{Username: "root", IsAdmin: true}),
		"unknown masv": bearer(t, middleware.Claims{StudentID: "SV404"}),
	} {
		w := serve(r, http.MethodPost, "/api/chat", `{"message":"hi"}`, tok)
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if w.Code != http.StatusForbidden || body["code"] != "unknown_student" {
			t.Fatalf("%s on student chat = %d %v", name, w.Code, body)
		}
	}
}

func TestRegisterRoutes_StudentChatRoundTrip(t *testing.T) {
	r := newRouter(t, testConfig())
	student := bearer(t, middleware.Claims{StudentID: "SV001"})

	w := serve(r, http.MethodPost, "/api/chat", `{"message":"Tôi có lịch học thứ mấy?"}`, student)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/chat = %d body=%s", w.Code, w.Body.String())
	}
	var chat struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &chat); err != nil || chat.Response == "" {
		t.Fatalf("chat body=%s err=%v", w.Body.String(), err)
	}

	w = serve(r, http.MethodGet, "/api/chat/history", "", student)
	var hist struct {
		History []map[string]any `json:"history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
		t.Fatalf("history json: %v", err)
	}
	if len(hist.History) != 1 || hist.History[0]["nguoidung_chat"] != "Tôi có lịch học thứ mấy?" {
		t.Fatalf("history = %v", hist.History)
	}
}

func TestRegisterRoutes_AdminSessionAndLimit(t *testing.T) {
	cfg := testConfig()
	cfg.AdminRateLimit = 2
	r := newRouter(t, cfg)
	admin := bearer(t, middleware.Claims{Username: "root", IsAdmin: true})

	w := serve(r, http.MethodPost, "/api/admin/chat", `{"message":"chào"}`, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("admin chat = %d body=%s", w.Code, w.Body.String())
	}
	w = serve(r, http.MethodGet, "/api/admin/chat/history", "", admin)
	var turns []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &turns); err != nil || len(turns) != 1 {
		t.Fatalf("history = %s err=%v", w.Body.String(), err)
	}

	w = serve(r, http.MethodGet, "/api/admin/chat/history", "", admin)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third admin call = %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["message"] != middleware.DefaultRateLimitMessage {
		t.Fatalf("429 body = %v", body)
	}
}

func TestRegisterRoutes_ReusedKeyOnPlainChatIsLimited(t *testing.T) {
	cfg := testConfig()
	cfg.AdminRateLimit = 2
	r, db := newRouterWithDB(t, cfg)
	admin := bearer(t, middleware.Claims{Username: "root", IsAdmin: true})

	// A committed submission under k1 already exists for this admin.
	if _, err := repo.CreateIdempotency(context.Background(), db, "root", services.ScheduleAddScope, "k1", "sched-1", http.StatusOK, time.Hour); err != nil {
		t.Fatalf("seed idempotency: %v", err)
	}

	var codes []int
	for i := 0; i < 3; i++ {
		w := serve(r, http.MethodPost, "/api/admin/chat", `{"message":"xin chao"}`, admin, middleware.HeaderIdempotencyKey, "k1")
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("plain chats with a reused key: codes=%v, want [200 200 429]", codes)
	}

	// The genuine replay is still served once the window is spent.
	w := serve(r, http.MethodPost, "/api/admin/chat", `{"message":"ADD_SCHEDULE","scheduleData":{}}`, admin, middleware.HeaderIdempotencyKey, "k1")
	if w.Code != http.StatusOK {
		t.Fatalf("replayed submit = %d body=%s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["replayed"] != true || body["success"] != true {
		t.Fatalf("replay body = %v", body)
	}
}
