package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/thiagohmg/capitaoanimais/internal/transport/http/handler"
	"github.com/thiagohmg/capitaoanimais/internal/transport/http/middleware"
)

// NewRouter wires the auth API and the static marketing site. limiter may
// be nil to disable rate limiting (tests, local dev).
func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, limiter *middleware.RateLimiter, staticDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	// The code endpoints get the brute-force guard; a 6-digit code is
	// guessable without one.
	codeGuard := func(c *gin.Context) { c.Next() }
	if limiter != nil {
		codeGuard = limiter.Handler()
	}

	api := r.Group("/api")
	api.POST("/send-verification", codeGuard, authHandler.SendVerification)
	api.POST("/verify-code", codeGuard, authHandler.VerifyCode)
	api.POST("/verify-token", authHandler.VerifyToken)
	api.GET("/session", authHandler.Session)
	api.POST("/logout", authHandler.Logout)

	if staticDir != "" {
		r.NoRoute(static(staticDir))
	}

	return r
}

// static serves the site files for anything that is not an API route.
func static(dir string) gin.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
			return
		}
		fs.ServeHTTP(c.Writer, c.Request)
	}
}
