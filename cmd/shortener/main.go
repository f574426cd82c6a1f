package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tempizhere/shortify/internal/app"
	"github.com/tempizhere/shortify/internal/config"
	grpcserver "github.com/tempizhere/shortify/internal/grpc"
	"github.com/tempizhere/shortify/internal/log"
	"github.com/tempizhere/shortify/internal/middleware"
	"github.com/tempizhere/shortify/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout время на завершение активных запросов
const shutdownTimeout = 10 * time.Second

func main() {
	// Получаем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}

	logger, err := log.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		panic(fmt.Errorf("failed to initialize logger: %w", err))
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

// run поднимает HTTP и, если задан адрес, gRPC сервер и ждёт отмены ctx
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	storage, err := app.NewStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.Error("Failed to close storage", zap.Error(err))
		}
	}()
	logger.Info("Storage initialized", zap.String("kind", storage.Kind))

	subnet, err := middleware.ParseTrustedSubnet(cfg.TrustedSubnet)
	if err != nil {
		return fmt.Errorf("parse trusted subnet: %w", err)
	}

	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.CookieTTL)
	svc := service.NewService(storage.Links, cfg.BaseURL, logger)
	accounts := service.NewAccountService(storage.Users, tokens, service.NewLogNotifier(logger), cfg.BaseURL, logger)

	// Слушатель gRPC открывается до запуска серверов: ошибка здесь не оставляет работающий HTTP
	var grpcListener net.Listener
	if cfg.GRPCAddr != "" {
		grpcListener, err = net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen gRPC: %w", err)
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.RunAddr,
		Handler:           app.NewRouter(app.NewApp(svc, accounts, tokens, storage.Pinger, logger), subnet),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("address", cfg.RunAddr), zap.String("base_url", cfg.BaseURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down HTTP server")
		return httpServer.Shutdown(shutdownCtx)
	})

	if grpcListener != nil {
		grpcServer := grpcserver.NewGRPCServer(grpcserver.NewServer(svc, storage.Pinger, logger), tokens, subnet, logger)
		g.Go(func() error {
			logger.Info("Starting gRPC server", zap.String("address", cfg.GRPCAddr))
			return grpcServer.Serve(grpcListener)
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("Shutting down gRPC server")
			grpcServer.GracefulStop()
			return nil
		})
	}

	return g.Wait()
}
