package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/thiagohmg/capitaoanimais/internal/transport/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedEngine(rl *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.POST("/limited", rl.Handler(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func post(r *gin.Engine, remoteAddr string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/limited", nil)
	req.RemoteAddr = remoteAddr
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	r := newLimitedEngine(middleware.NewRateLimiter(1, 3))

	for i := 0; i < 3; i++ {
		if code := post(r, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, code)
		}
	}
}

func TestRateLimiter_BlocksBeyondBurst(t *testing.T) {
	// Near-zero refill so the bucket does not recover during the test.
	r := newLimitedEngine(middleware.NewRateLimiter(0.0001, 2))

	post(r, "10.0.0.1:1234")
	post(r, "10.0.0.1:1234")
	if code := post(r, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", code)
	}
}

func TestRateLimiter_IsolatesClients(t *testing.T) {
	r := newLimitedEngine(middleware.NewRateLimiter(0.0001, 1))

	post(r, "10.0.0.1:1234")
	if code := post(r, "10.0.0.1:9999"); code != http.StatusTooManyRequests {
		t.Fatalf("same IP, new port: status = %d, want 429", code)
	}
	if code := post(r, "10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("different IP: status = %d, want 200", code)
	}
}
