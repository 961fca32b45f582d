package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/asterisk/internal/api"
	"github.com/example/asterisk/internal/config"
	"github.com/example/asterisk/internal/core"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Load .env file. In release mode the environment is expected to be set directly.
	if os.Getenv(config.EnvPrefix+"_GIN_MODE") != gin.ReleaseMode {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Println("Warning: Error loading .env file:", err)
		}
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	zapLogger, err := appConfig.NewLogger()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	if strings.ToLower(appConfig.GinMode) == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	state := core.NewState(appConfig, zapLogger)
	zapLogger.Info("Shared state initialized", zap.String("auditLog", state.Audit.Path()))

	bridge := api.NewBridgeServer(state, zapLogger.Named("bridge"))
	if err := bridge.Start(appConfig.ListenAddr); err != nil {
		// The extension only knows the fixed port, so there is no fallback address.
		zapLogger.Fatal("Failed to start bridge", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := bridge.Shutdown(ctx); err != nil {
		zapLogger.Error("Bridge forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Bridge exited")
}
