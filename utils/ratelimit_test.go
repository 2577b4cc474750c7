package utils

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// counterScripter emulates the fixed-window script with an in-memory counter.
type counterScripter struct {
	redis.Scripter
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (s *counterScripter) EvalSha(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.Eval(ctx, "", keys, args...)
}

func (s *counterScripter) Eval(_ context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return redis.NewCmdResult(nil, s.err)
	}
	s.counts[keys[0]]++
	return redis.NewCmdResult(s.counts[keys[0]], nil)
}

func rateLimitedRouter(s redis.Scripter, limit int) *gin.Engine {
	rl := NewRedisRateLimiter(s, limit, time.Minute, "test")
	r := gin.New()
	r.GET("/public/:slug", rl.Middleware(slog.New(slog.NewTextHandler(io.Discard, nil))), func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return r
}

func doGet(r http.Handler, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRedisRateLimiter(t *testing.T) {
	r := rateLimitedRouter(&counterScripter{counts: map[string]int64{}}, 2)

	for i := 0; i < 2; i++ {
		if w := doGet(r, "/public/sharp-cuts", "192.168.1.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d", i+1, w.Code)
		}
	}
	w := doGet(r, "/public/sharp-cuts", "192.168.1.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: got status %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") != "60" || w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("unexpected headers %v", w.Header())
	}

	// other clients have their own window
	if w := doGet(r, "/public/sharp-cuts", "192.168.1.2"); w.Code != http.StatusOK {
		t.Errorf("other client: got status %d", w.Code)
	}
}

func TestRedisRateLimiterFailsOpen(t *testing.T) {
	r := rateLimitedRouter(&counterScripter{counts: map[string]int64{}, err: errors.New("connection refused")}, 1)
	for i := 0; i < 3; i++ {
		if w := doGet(r, "/public/sharp-cuts", "192.168.1.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d", i+1, w.Code)
		}
	}
}
