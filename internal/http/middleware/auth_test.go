package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func authRouter(a *Authenticator, adminOnly bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(a.Require(adminOnly))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetString("userID"), "admin": IsAdmin(c)})
	})
	return r
}

func token(t *testing.T, a *Authenticator, c Claims) string {
	t.Helper()
	s, err := a.Sign(c)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestAuth_Rejections(t *testing.T) {
	a := NewAuthenticator("s3cret")
	other := NewAuthenticator("other")
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name      string
		header    string
		adminOnly bool
		status    int
		msg       string
	}{
		{"missing", "", false, http.StatusUnauthorized, msgTokenMissing},
		{"not bearer", "Basic abc", false, http.StatusUnauthorized, msgTokenMissing},
		{"garbage", "Bearer not-a-token", false, http.StatusUnauthorized, msgTokenInvalid},
		{"wrong key", "Bearer " + token(t, other, Claims{StudentID: "SV001"}), false, http.StatusUnauthorized, msgTokenInvalid},
		{"expired", "Bearer " + token(t, a, Claims{StudentID: "SV001", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: past}}), false, http.StatusUnauthorized, msgTokenExpired},
		{"no identity", "Bearer " + token(t, a, Claims{}), false, http.StatusUnauthorized, msgTokenInvalid},
		{"student on admin route", "Bearer " + token(t, a, Claims{StudentID: "SV001"}), true, http.StatusForbidden, msgForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			authRouter(a, tt.adminOnly).ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["error"] != tt.msg || body["request_id"] == "" {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestAuth_SetsIdentity(t *testing.T) {
	a := NewAuthenticator("s3cret")
	tests := []struct {
		name      string
		claims    Claims
		adminOnly bool
		wantID    string
		wantAdmin bool
	}{
		{"student", Claims{StudentID: "SV001", Username: "an"}, false, "SV001", false},
		{"admin", Claims{Username: "root", IsAdmin: true}, true, "root", true},
		{"admin on student route", Claims{Username: "root", IsAdmin: true}, false, "root", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "bearer "+token(t, a, tt.claims))
			authRouter(a, tt.adminOnly).ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
			}
			var body struct {
				ID    string `json:"id"`
				Admin bool   `json:"admin"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body.ID != tt.wantID || body.Admin != tt.wantAdmin {
				t.Fatalf("got %+v", body)
			}
		})
	}
}

func TestAuth_RejectsOtherAlgorithms(t *testing.T) {
	a := NewAuthenticator("s3cret")
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{StudentID: "SV001"}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := a.Parse(raw); err == nil {
		t.Fatalf("HS512 token accepted")
	}
}
