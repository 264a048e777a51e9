package main

import (
	"fmt"

	"myfi.backend/internal/config"
	"myfi.backend/internal/infrastructure/accord"
	"myfi.backend/internal/infrastructure/datasources/postgres"
	"myfi.backend/internal/infrastructure/jobs"
	"myfi.backend/internal/infrastructure/repositories"
	"myfi.backend/internal/usecases"
)

// pipeline is what a command needs to run an ingestion pass
type pipeline struct {
	ingester jobs.ReferenceIngester
	source   jobs.ReferenceSource
	feedDate string
	close    func()
}

type environment struct {
	cfg  *config.Config
	open func(cfg *config.Config) (*pipeline, error)
}

// openPipeline connects to postgres and wires the reconciler and upstream client
func openPipeline(cfg *config.Config) (*pipeline, error) {
	sqlDB, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		return nil, err
	}
	db, err := postgres.NewGorm(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	if err := postgres.Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &pipeline{
		ingester: usecases.NewReferenceDataUsecase(
			repositories.NewAmcRepository(db),
			repositories.NewSchemeRepository(db),
			repositories.NewSchemeNavRepository(db),
			repositories.NewUnitOfWork(db),
			cfg.Sync.Workers,
		),
		source:   accord.NewClientWithBaseURL(cfg.Accord.Token, cfg.Accord.BaseURL, cfg.Accord.Timeout),
		feedDate: cfg.Accord.FeedDate,
		close:    func() { _ = sqlDB.Close() },
	}, nil
}
