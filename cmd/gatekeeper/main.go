package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/config"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/db"
	httpinfra "github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/http"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("gatekeeper: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, logCloser, err := logging.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.NewStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	srv := httpinfra.NewServer(ctx, cfg, store, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	logger.Info("server stopped", slog.String("event", "shutdown.complete"))
	return nil
}
