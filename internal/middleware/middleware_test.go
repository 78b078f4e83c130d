package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seribro_backend/internal/auth"
	"seribro_backend/internal/models"
	"seribro_backend/pkg/apperrors"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubVerifier принимает один токен
type stubVerifier struct {
	token  string
	claims *auth.Claims
}

func (v stubVerifier) VerifyToken(ctx context.Context, token string) (*auth.Claims, error) {
	if token != v.token {
		return nil, apperrors.ErrUnauthenticated.WithMessage("Invalid token")
	}
	return v.claims, nil
}

func newAuthRouter(roles ...models.UserRole) *gin.Engine {
	claims := &auth.Claims{UserID: "u1", Role: models.UserRoleStudent}
	claims.ID = "jti-1"

	r := gin.New()
	r.Use(AuthMiddleware(stubVerifier{token: "good", claims: claims}, "seribro_token"))
	if len(roles) > 0 {
		r.Use(RequireRoles(roles...))
	}
	r.GET("/me", func(c *gin.Context) {
		got := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"userId": GetUserID(c), "jti": got.ID})
	})
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"bad token", "Bearer bad", "", http.StatusUnauthorized},
		{"bearer token", "Bearer good", "", http.StatusOK},
		{"cookie token", "", "good", http.StatusOK},
	}

	router := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "seribro_token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			body := decode(t, w)
			if tt.want == http.StatusOK {
				assert.Equal(t, "u1", body["userId"])
				assert.Equal(t, "jti-1", body["jti"])
			} else {
				assert.Equal(t, false, body["success"])
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")

	w := httptest.NewRecorder()
	newAuthRouter(models.UserRoleCompany).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	newAuthRouter(models.UserRoleStudent, models.UserRoleCompany).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermission(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("role", models.UserRoleStudent)
		c.Next()
	})
	r.GET("/apply", RequirePermission(auth.PermApplicationsWrite), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/review", RequirePermission(auth.PermVerificationReview), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/apply", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/review", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMemoryLimiter_Window(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "k", 2, time.Minute))
	assert.True(t, limiter.Allow(ctx, "k", 2, time.Minute))
	assert.False(t, limiter.Allow(ctx, "k", 2, time.Minute))
	assert.True(t, limiter.Allow(ctx, "other", 2, time.Minute))

	now = now.Add(2 * time.Minute)
	assert.True(t, limiter.Allow(ctx, "k", 2, time.Minute))
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(NewMemoryLimiter(), "auth", 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, string(apperrors.CodeRateLimited), decode(t, w)["code"])
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := NewRedisLimiter(client)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "ratelimit:auth:1.2.3.4", 2, time.Minute))
	assert.True(t, limiter.Allow(ctx, "ratelimit:auth:1.2.3.4", 2, time.Minute))
	assert.False(t, limiter.Allow(ctx, "ratelimit:auth:1.2.3.4", 2, time.Minute))

	mr.FastForward(2 * time.Minute)
	assert.True(t, limiter.Allow(ctx, "ratelimit:auth:1.2.3.4", 2, time.Minute))
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { client.Close() })

	limiter := NewRedisLimiter(client)
	assert.True(t, limiter.Allow(context.Background(), "k", 1, time.Minute))
	assert.True(t, limiter.Allow(context.Background(), "k", 1, time.Minute))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.seribro.test"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.seribro.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.seribro.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// мусор в заголовке заменяется своим id
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "bad id\r\nSet-Cookie: x")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotContains(t, w.Header().Get("X-Request-ID"), " ")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestAccessLevel(t *testing.T) {
	level, _ := accessLevel(http.StatusOK)
	assert.Equal(t, slog.LevelInfo, level)
	level, _ = accessLevel(http.StatusNotFound)
	assert.Equal(t, slog.LevelWarn, level)
	level, _ = accessLevel(http.StatusBadGateway)
	assert.Equal(t, slog.LevelError, level)
}
