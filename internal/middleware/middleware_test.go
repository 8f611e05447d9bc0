package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sjperalta/studio-finance-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(role string) Claims {
	return Claims{
		UserID: 7,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	protected := r.Group("")
	protected.Use(Auth(testSecret))
	protected.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetUserRole(c)})
	})
	protected.DELETE("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuth(t *testing.T) {
	expired := validClaims(RoleStaff)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noRole := validClaims("")
	noUser := validClaims(RoleAdmin)
	noUser.UserID = 0

	tests := []struct {
		name           string
		header         string
		query          string
		expectedStatus int
		expectedBody   string
	}{
		{"missing header", "", "", http.StatusUnauthorized, "authorization header is required"},
		{"wrong scheme", "Basic abc", "", http.StatusUnauthorized, "invalid authorization header format"},
		{"valid staff token", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(RoleStaff)), "", http.StatusOK, `"role":"staff"`},
		{"token in query", "", "?token=" + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(RoleAdmin)), http.StatusOK, `"user_id":7`},
		{"wrong secret", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims(RoleStaff)), "", http.StatusUnauthorized, "invalid token"},
		{"expired", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired), "", http.StatusUnauthorized, "token has expired"},
		{"HS512 rejected", "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims(RoleStaff)), "", http.StatusUnauthorized, "invalid token"},
		{"unknown role", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noRole), "", http.StatusUnauthorized, "invalid token claims"},
		{"missing user", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noUser), "", http.StatusUnauthorized, "invalid token claims"},
	}

	r := newRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter()

	tests := []struct {
		role           string
		expectedStatus int
	}{
		{RoleAdmin, http.StatusNoContent},
		{RoleStaff, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("DELETE", "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(tt.role)))
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		allowed        []string
		origin         string
		method         string
		expectedStatus int
		expectedOrigin string
	}{
		{"wildcard", []string{"*"}, "https://app.studio.test", "GET", http.StatusOK, "*"},
		{"listed origin", []string{"https://app.studio.test"}, "https://app.studio.test", "GET", http.StatusOK, "https://app.studio.test"},
		{"unlisted origin", []string{"https://app.studio.test"}, "https://evil.test", "GET", http.StatusOK, ""},
		{"preflight", []string{"https://app.studio.test"}, "https://app.studio.test", "OPTIONS", http.StatusNoContent, "https://app.studio.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.allowed))
			r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/ping", nil)
			req.Header.Set("Origin", tt.origin)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger.SetupWithWriter("production", &buf)
	t.Cleanup(func() { logger.SetupWithWriter("test", io.Discard) })

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/api/v1/finance/incomes", func(c *gin.Context) {
		c.Set("userID", uint(7))
		c.Set("userRole", RoleStaff)
		c.Status(http.StatusNotFound)
	})
	r.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/finance/incomes?page=2", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"path":"/api/v1/finance/incomes?page=2"`)
	assert.Contains(t, out, `"user_id":7`)
	assert.Contains(t, out, `"request_id":"req-123"`)

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Empty(t, buf.String())
}
