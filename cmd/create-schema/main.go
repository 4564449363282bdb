package main

import (
	"context"
	"log"

	"turn2law-backend/config"
	"turn2law-backend/repository"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()

	db := repository.NewDatabase(cfg.Database)
	defer db.Close()

	ctx := context.Background()
	repo := repository.NewLawyerRepository(db)

	if err := repo.EnsureSchema(ctx); err != nil {
		zap.L().Fatal("failed to create lawyers schema", zap.Error(err))
	}
	log.Println("✓ lawyers table ready")

	n, err := repo.Count(ctx)
	if err != nil {
		zap.L().Fatal("failed to count lawyers", zap.Error(err))
	}
	log.Printf("✓ %d lawyers stored", n)
}
