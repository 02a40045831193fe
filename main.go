package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satriahrh/cocoa-fruit/hexdigest/adapters/hasher"
	httpadapter "github.com/satriahrh/cocoa-fruit/hexdigest/adapters/http"
	"github.com/satriahrh/cocoa-fruit/hexdigest/adapters/message_broker"
	"github.com/satriahrh/cocoa-fruit/hexdigest/adapters/websocket"
	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
	"github.com/satriahrh/cocoa-fruit/hexdigest/usecase"
	"github.com/satriahrh/cocoa-fruit/hexdigest/utils/config"
	"github.com/satriahrh/cocoa-fruit/hexdigest/utils/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.With(zap.Error(err)).Fatal("loading config")
	}
	// log's init ran before .env was loaded.
	if err := log.SetDebug(cfg.Debug); err != nil {
		log.With(zap.Error(err)).Fatal("building logger")
	}

	hashers, err := hasher.NewSet(hasher.Config{
		Backend:        cfg.SHA256Backend,
		OpenSSLLibrary: cfg.OpenSSLLibrary,
	})
	if err != nil {
		log.With(zap.Error(err)).Fatal("building hashers")
	}

	var def domain.Hasher
	opts := []usecase.Option{}
	for _, h := range hashers {
		if h.Algorithm() == domain.Algorithm(cfg.Algorithm) {
			def = h
			continue
		}
		opts = append(opts, usecase.WithHasher(h))
	}
	if def == nil {
		log.With(zap.String("algorithm", cfg.Algorithm)).Fatal("unsupported DIGEST_ALGORITHM")
	}

	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()
	svc := usecase.NewDigestService(def, append(opts, usecase.WithBroker(broker))...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := websocket.NewServer(svc, broker)
	server.Run(ctx)

	digestHandler := httpadapter.NewDigestHandler(svc, httpadapter.Config{
		JWTSecret:     cfg.JWTSecret,
		JWTExpiry:     cfg.JWTExpiry,
		APIKey:        cfg.APIKey,
		APISecret:     cfg.APISecret,
		MaxConcurrent: cfg.MaxConcurrent,
	})

	e := echo.New()
	e.HideBanner = true

	// Security middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit)))) // RATE_LIMIT requests per second per IP

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-API-Key",
			"X-API-Secret",
			httpadapter.HeaderRequestID,
		},
		ExposeHeaders: []string{httpadapter.HeaderRequestID},
		MaxAge:        86400, // 24 hours
	}))

	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	// JWT auth for WebSocket (same as HTTP)
	e.GET("/ws", server.Handler, digestHandler.JWTMiddleware)

	digestHandler.Register(e.Group("/api/v1"))

	logger := log.With(zap.String("addr", cfg.HTTPAddr), zap.String("algorithm", string(svc.DefaultAlgorithm())), zap.String("sha256_backend", cfg.SHA256Backend))
	logger.Info("Starting server")
	logger.Info("Available endpoints",
		zap.Strings("routes", []string{
			"GET  /api/v1/health     - Health check",
			"POST /api/v1/auth/token - Get JWT token",
			"POST /api/v1/digest     - Compute digest (JWT required)",
			"POST /api/v1/verify     - Verify digest (JWT required)",
			"GET  /ws                - WebSocket (JWT required)",
		}))

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}
