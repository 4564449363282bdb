package main

import (
	"fmt"
	"os"

	"turn2law-backend/config"
	"turn2law-backend/repository"
	"turn2law-backend/service"
	"turn2law-backend/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lawyerctl",
	Short: "Manage the lawyer directory",
	Long:  "Imports and exports lawyer datasets between dataset storage and the lawyers table.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openRepository returns the lawyer repository and a function closing its pool
func openRepository() (*repository.LawyerRepository, func()) {
	db := repository.NewDatabase(cfg.Database)
	return repository.NewLawyerRepository(db), db.Close
}

// openDatasets returns a dataset service over the configured storage and database
func openDatasets() (*service.DatasetService, *repository.LawyerRepository, func(), error) {
	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return nil, nil, nil, err
	}
	repo, closeDB := openRepository()
	datasets := service.NewDatasetService(
		service.WithDatasetStorage(store),
		service.WithDatasetStore(repo),
	)
	return datasets, repo, closeDB, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
