package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cargo/internal/auth"
	"cargo/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return data, nil
}

func (s *memoryStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return nil
}

type staticLimiter struct{ allow bool }

func (l staticLimiter) Allow(ctx context.Context, key string) bool { return l.allow }

func bearer(t *testing.T, tokens *auth.TokenManager, role domain.Role) string {
	t.Helper()
	token, _, err := tokens.Issue(&domain.User{ID: "user-" + string(role), Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour, "cargo")

	router := gin.New()
	router.GET("/me", Authenticate(tokens), func(c *gin.Context) {
		claims, _ := ClaimsFrom(c)
		c.String(http.StatusOK, claims.UserID())
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"status_code":401`)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", bearer(t, tokens, domain.RoleDriver))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-DRIVER", w.Body.String())
	})
}

func TestRequireRoles(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour, "cargo")

	router := gin.New()
	router.GET("/admin", Authenticate(tokens), RequireRoles(domain.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for role, want := range map[domain.Role]int{
		domain.RoleAdmin:      http.StatusNoContent,
		domain.RoleCargoOwner: http.StatusForbidden,
		domain.RoleDriver:     http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", bearer(t, tokens, role))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}

func TestIdempotency_ReplaysResponse(t *testing.T) {
	store := newMemoryStore()
	var calls atomic.Int32

	router := gin.New()
	router.POST("/orders", Idempotency(store, zap.NewNop()), func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		if key != "" {
			req.Header.Set(idempotencyHeader, key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send("abc")
	second := send("abc")

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(replayHeader))
	assert.Equal(t, int32(1), calls.Load())

	// Different key or no key runs the handler again.
	send("def")
	send("")
	assert.Equal(t, int32(3), calls.Load())
}

func TestIdempotency_DoesNotReplayServerErrors(t *testing.T) {
	store := newMemoryStore()
	var calls atomic.Int32

	router := gin.New()
	router.POST("/pay", Idempotency(store, zap.NewNop()), func(c *gin.Context) {
		calls.Add(1)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "boom"})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/pay", nil)
		req.Header.Set(idempotencyHeader, "same")
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, int32(2), calls.Load())
}

func TestRateLimit(t *testing.T) {
	router := gin.New()
	router.POST("/open", RateLimit(staticLimiter{allow: true}, "auth"), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/closed", RateLimit(staticLimiter{allow: false}, "auth"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/open", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/closed", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
