package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thiagohmg/capitaoanimais/config"
	"github.com/thiagohmg/capitaoanimais/internal/email"
	"github.com/thiagohmg/capitaoanimais/internal/health"
	ctxlog "github.com/thiagohmg/capitaoanimais/internal/log"
	"github.com/thiagohmg/capitaoanimais/internal/metrics"
	"github.com/thiagohmg/capitaoanimais/internal/token"
	httptransport "github.com/thiagohmg/capitaoanimais/internal/transport/http"
	"github.com/thiagohmg/capitaoanimais/internal/transport/http/handler"
	"github.com/thiagohmg/capitaoanimais/internal/transport/http/middleware"
	"github.com/thiagohmg/capitaoanimais/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The signing secret and mail credential are injected once here.
	// Missing values degrade the affected endpoints to 500 instead of
	// refusing to start, so the static site stays up regardless.
	var signer *token.Signer
	var codec *token.Codec
	if cfg.JWTSecret != "" {
		signer = token.NewSigner([]byte(cfg.JWTSecret))
		codec = token.NewCodec(signer)
	} else {
		logger.Warn("JWT_SECRET not set; auth endpoints will refuse requests")
	}

	var sender email.Sender
	if cfg.MailConfigured() {
		sender = email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	} else {
		logger.Warn("RESEND_API_KEY not set; verification emails cannot be sent")
	}

	authUsecase := usecase.NewAuthUsecase(codec, signer, sender, cfg.MagicLinkBase)
	authHandler := handler.NewAuthHandler(authUsecase, logger)

	var limiter *middleware.RateLimiter
	if cfg.CodeRatePerSec > 0 {
		limiter = middleware.NewRateLimiter(cfg.CodeRatePerSec, cfg.CodeRateBurst)
	}

	metrics.Register()
	checker := health.NewChecker(codec != nil, sender != nil, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, authHandler, limiter, cfg.StaticDir),
	}
	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
