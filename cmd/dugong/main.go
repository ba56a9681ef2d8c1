package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-dugong/internal/api"
	"github.com/sirosfoundation/go-dugong/internal/app"
	"github.com/sirosfoundation/go-dugong/pkg/config"
	"github.com/sirosfoundation/go-dugong/pkg/logging"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile    = flag.String("env-file", ".env", "Path to .env file")
	variant    = flag.String("variant", "", "Feature variant: base, sample, demo or all")
	version    = "dev"
	buildTime  = "unknown"
)

func main() {
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *variant != "" {
		cfg.Variant = *variant
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	api.Version = version
	logger.Info("Starting dugong",
		zap.String("version", version),
		zap.String("build_time", buildTime),
		zap.String("variant", cfg.Variant),
	)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize server", zap.Error(err))
	}

	if err := a.Start(context.Background()); err != nil {
		_ = a.Shutdown(context.Background())
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	// Wait for interrupt signal or a serve error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		logger.Info("Received signal", zap.String("signal", sig.String()))
	case err := <-a.Errors():
		logger.Error("Server stopped unexpectedly", zap.Error(err))
		exitCode = 1
	}

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := a.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
	if exitCode != 0 {
		_ = logger.Sync()
		os.Exit(exitCode)
	}
}
