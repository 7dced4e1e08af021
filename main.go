package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xiaot623/gogo/exchange/internal/adapter/intent"
	"github.com/xiaot623/gogo/exchange/internal/auth"
	"github.com/xiaot623/gogo/exchange/internal/config"
	"github.com/xiaot623/gogo/exchange/internal/metrics"
	"github.com/xiaot623/gogo/exchange/internal/repository"
	"github.com/xiaot623/gogo/exchange/internal/service"
	handler "github.com/xiaot623/gogo/exchange/internal/transport/http"
	"github.com/xiaot623/gogo/exchange/internal/transport/rpc"
	"github.com/xiaot623/gogo/exchange/policy"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	logger.Info("starting exchange",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("rpc_port", cfg.RPCPort),
		zap.String("database", cfg.DatabaseURL),
		zap.String("intent_provider", cfg.IntentProvider),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer db.Close()

	// Initialize intent translator
	translator, err := intent.NewTranslator(cfg.IntentProvider, logger)
	if err != nil {
		logger.Fatal("failed to initialize intent translator", zap.Error(err))
	}

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		logger.Fatal("failed to initialize policy engine", zap.Error(err))
	}

	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	collector := metrics.NewCollector("exchange", logger)

	// Initialize service
	svc, err := service.New(db, translator, tokens, policyEngine, collector, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize service", zap.Error(err))
	}

	httpServer := handler.NewServer(ctx, svc, tokens, collector, logger, handler.Options{
		RegisterRatePerMin: cfg.RegisterRatePerMin,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start http server", zap.Error(err))
		}
	}()
	logger.Info("http api started", zap.Int("port", cfg.HTTPPort))

	var rpcServer *rpc.Server
	if cfg.RPCPort > 0 {
		rpcServer, err = rpc.NewServer(svc, logger)
		if err != nil {
			logger.Fatal("failed to initialize rpc server", zap.Error(err))
		}
		go func() {
			addr := fmt.Sprintf(":%d", cfg.RPCPort)
			if err := rpcServer.Start(addr); err != nil {
				logger.Fatal("failed to start rpc server", zap.Error(err))
			}
		}()
		logger.Info("rpc api started", zap.Int("port", cfg.RPCPort))
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down exchange")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown http server gracefully", zap.Error(err))
	}
	if rpcServer != nil {
		if err := rpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shutdown rpc server gracefully", zap.Error(err))
		}
	}

	logger.Info("exchange stopped")
}

func initLogger(level, format string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Development:      format == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(zap.AddCaller())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger, falling back to production: %v\n", err)
		logger, _ = zap.NewProduction()
	}
	return logger.With(zap.String("service", "exchange"))
}
