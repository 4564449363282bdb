package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"turn2law-backend/config"
	"turn2law-backend/handlers"
	"turn2law-backend/metrics"
	"turn2law-backend/repository"
	"turn2law-backend/service"
	"turn2law-backend/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := config.InitLogger(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The pool connects on first use so the server starts while Postgres is down
	db := repository.NewDatabase(cfg.Database)
	defer db.Close()

	lawyerRepo := repository.NewLawyerRepository(db)
	m := metrics.New("turn2law")

	matchService := service.NewMatchService(
		service.WithLawyerStore(lawyerRepo),
		service.WithMatchConfig(cfg.Match),
		service.WithMetrics(m),
	)

	// Dataset upload is optional; the match API does not depend on it
	var datasetHandler *handlers.DatasetHandler
	datasetStorage, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		zap.L().Warn("dataset storage unavailable, dataset routes disabled", zap.Error(err))
	} else {
		datasetHandler = handlers.NewDatasetHandler(service.NewDatasetService(
			service.WithDatasetStorage(datasetStorage),
			service.WithDatasetStore(lawyerRepo),
		))
	}

	lawyerHandler := handlers.NewLawyerHandler(matchService)
	r := handlers.NewRouter(lawyerHandler, datasetHandler, cfg.RateLimit, m)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			zap.L().Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("server shutdown failed", zap.Error(err))
	}
}
