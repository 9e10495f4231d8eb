package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const (
	testSecret = "test-secret"
	testIssuer = "ledger-test"
)

func signToken(t *testing.T, subject, issuer string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	r := gin.New()
	r.Use(StructuredLoggingMiddleware(logger))
	r.GET("/private", AuthMiddleware(TokenSettings{Secret: testSecret, Issuer: testIssuer}), func(c *gin.Context) {
		actorID, ok := GetActorIDFromContext(c)
		fromCtx, _ := ActorFromCtx(c.Request.Context())
		if !ok || fromCtx != actorID {
			c.Status(http.StatusInternalServerError)
			return
		}
		GetLoggerFromCtx(c.Request.Context()).Info("handled")
		c.String(http.StatusOK, actorID)
	})
	return r
}

func unsignedExpiry(t *testing.T) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "ops-1", Issuer: testIssuer}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, "ops-1", testIssuer, -time.Minute), http.StatusUnauthorized},
		{"foreign issuer", "Bearer " + signToken(t, "ops-1", "other-bank", time.Hour), http.StatusUnauthorized},
		{"no subject", "Bearer " + signToken(t, "", testIssuer, time.Hour), http.StatusUnauthorized},
		{"no expiry", "Bearer " + unsignedExpiry(t), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, "ops-1", testIssuer, time.Hour), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
			if tt.status == http.StatusOK {
				assert.Equal(t, "ops-1", w.Body.String())
			}
		})
	}
	assert.Contains(t, buf.String(), `"actor_id":"ops-1"`)
}

func TestStructuredLogging_ReusesRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
}

func TestGetLoggerFromCtx_Default(t *testing.T) {
	assert.Equal(t, slog.Default(), GetLoggerFromCtx(context.Background()))
}

func TestGinMiddlewarize_LimitsByAddress(t *testing.T) {
	rate, err := limiter.NewRateFromFormatted("2-M")
	require.NoError(t, err)
	r := gin.New()
	r.Use(GinMiddlewarize(limiter.New(memory.NewStore(), rate)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestActorRateLimit_BucketsPerActor(t *testing.T) {
	rate, err := limiter.NewRateFromFormatted("2-M")
	require.NoError(t, err)
	r := gin.New()
	r.GET("/ping",
		AuthMiddleware(TokenSettings{Secret: testSecret, Issuer: testIssuer}),
		ActorRateLimit(limiter.New(memory.NewStore(), rate)),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	call := func(actorID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, actorID, testIssuer, time.Hour))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call("teller-1").Code)
	second := call("teller-1")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, call("teller-1").Code)

	// Same client address, different actor: separate budget.
	assert.Equal(t, http.StatusOK, call("teller-2").Code)
}
