package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ojclient/internal/mockjudge"
	"ojclient/pkg/utils/logger"
)

const defaultShutdownTimeout = 5 * time.Second

func main() {
	addr := flag.String("addr", "127.0.0.1:8000", "Listen address")
	secret := flag.String("secret", "", "JWT signing secret")
	accessTTL := flag.Duration("access-ttl", 15*time.Minute, "Access token lifetime")
	refreshTTL := flag.Duration("refresh-ttl", 24*time.Hour, "Refresh token lifetime")
	pageSize := flag.Int("page-size", 25, "Problem list page size")
	compress := flag.Bool("compress", true, "Compress responses with zstd or gzip")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if err := logger.Init(logger.Config{Level: *logLevel, Format: "console", OutputPath: "stdout"}); err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	gin.SetMode(gin.ReleaseMode)

	srv := mockjudge.New(mockjudge.Options{
		Secret:     []byte(*secret),
		AccessTTL:  *accessTTL,
		RefreshTTL: *refreshTTL,
		PageSize:   *pageSize,
		Compress:   *compress,
	})
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "mock judge started",
			zap.String("addr", *addr),
			zap.String("demo_email", mockjudge.DemoEmail),
			zap.String("demo_password", mockjudge.DemoPassword),
		)
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}
