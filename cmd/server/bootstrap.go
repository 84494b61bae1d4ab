package main

import (
	"context"
	"time"

	"github.com/huangang/tasktracker/internal/config"
	"github.com/huangang/tasktracker/internal/metrics"
	"github.com/huangang/tasktracker/internal/middleware"
	"github.com/huangang/tasktracker/internal/models"
	"github.com/huangang/tasktracker/internal/services"
	"github.com/huangang/tasktracker/internal/utils"
	"github.com/huangang/tasktracker/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// appServices holds the process-wide dependencies handed to the routes.
type appServices struct {
	cfg         *config.Config
	db          *gorm.DB
	authLimiter *middleware.RateLimiter
	gatherer    prometheus.Gatherer
}

// bootstrap opens and migrates the store, provisions the admin account and
// registers the store collectors.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	db, err := models.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if cfg.Seed.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := services.NewSeedService(db, &cfg.Seed).EnsureAdmin(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to seed admin user, continuing without it")
		}
		cancel()
	}

	if sqlDB, err := db.DB(); err == nil {
		prometheus.MustRegister(collectors.NewDBStatsCollector(sqlDB, cfg.Database.Driver))
	}
	prometheus.MustRegister(metrics.NewStoreCollector(db))

	return &appServices{
		cfg:         cfg,
		db:          db,
		authLimiter: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		gatherer:    prometheus.DefaultGatherer,
	}
}

// shutdown releases everything bootstrap acquired.
func (s *appServices) shutdown() {
	s.authLimiter.Stop()
	if err := models.Close(s.db); err != nil {
		logger.Warn().Err(err).Msg("Failed to close database")
	}
	logger.Info().Msg("Resources released")
}
