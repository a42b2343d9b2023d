// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file verifies the portal's HMAC-signed bearer tokens. Tokens are
// issued elsewhere; this service only checks them and derives the caller's
// identity and admin flag.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Gin context keys set by Auth.
const (
	ctxKeyUserID  = "userID"
	ctxKeyIsAdmin = "isAdmin"
)

// Auth failure messages.
const (
	msgTokenMissing = "Không tìm thấy token"
	msgTokenExpired = "Token đã hết hạn"
	msgTokenInvalid = "Token không hợp lệ"
	msgForbidden    = "Không có quyền truy cập"
)

// Claims is the token payload. Students carry their student number in
// StudentID; admins are identified by Username.
type Claims struct {
	Username  string `json:"username,omitempty"`
	StudentID string `json:"masv,omitempty"`
	IsAdmin   bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Identity is the stable per-user key: the username for admins, the student
// number otherwise.
func (c *Claims) Identity() string {
	if c.IsAdmin && c.Username != "" {
		return c.Username
	}
	if c.StudentID != "" {
		return c.StudentID
	}
	return c.Username
}

// Authenticator validates bearer tokens signed with Secret.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewAuthenticator returns an Authenticator accepting HS256 tokens.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Parse verifies raw and returns its claims.
func (a *Authenticator) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.Identity() == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Sign issues a token for claims. The portal's login service does this in
// production; the server uses it only in tests and local tooling.
func (a *Authenticator) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Require rejects requests without a valid bearer token (401), and when
// adminOnly is set, tokens without the admin flag (403). On success it sets
// "userID" and "isAdmin" in the Gin context.
func (a *Authenticator) Require(adminOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortAuth(c, http.StatusUnauthorized, "auth_missing", msgTokenMissing)
			return
		}
		claims, err := a.Parse(raw)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			abortAuth(c, http.StatusUnauthorized, "auth_expired", msgTokenExpired)
			return
		case err != nil:
			abortAuth(c, http.StatusUnauthorized, "auth_invalid", msgTokenInvalid)
			return
		}
		if adminOnly && !claims.IsAdmin {
			abortAuth(c, http.StatusForbidden, "forbidden", msgForbidden)
			return
		}

		c.Set(ctxKeyUserID, claims.Identity())
		c.Set(ctxKeyIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

// IsAdmin reports whether Auth accepted an admin token for this request.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ctxKeyIsAdmin)
}

func bearerToken(h string) string {
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

func abortAuth(c *gin.Context, status int, code, msg string) {
	rid, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": asString(rid),
		"code":       code,
		"error":      msg,
		"message":    msg,
	})
}
