package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/karvio/emissions-service/internal/calc"
	"github.com/karvio/emissions-service/internal/config"
	"github.com/karvio/emissions-service/internal/db"
	"github.com/karvio/emissions-service/internal/factor"
	"github.com/karvio/emissions-service/internal/forecast"
	httphandler "github.com/karvio/emissions-service/internal/http"
	"github.com/karvio/emissions-service/internal/logger"
	"github.com/karvio/emissions-service/internal/repository"
	"github.com/karvio/emissions-service/internal/sensor"
	"github.com/karvio/emissions-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	activityRepo := repository.NewActivityRepository(database)
	sensorRepo := repository.NewSensorRepository(database)
	companyRepo := repository.NewCompanyRepository(database)

	registry := factor.NewRegistry(log)
	factorStore := factor.NewFileStore(cfg.Factors.CachePath)
	registry.LoadCache(factorStore)

	thresholds := calc.Thresholds{
		Scope1Warning: cfg.Compliance.Scope1Warning,
		Scope2Warning: cfg.Compliance.Scope2Warning,
		Scope3Warning: cfg.Compliance.Scope3Warning,
	}
	if cfg.Factors.OverridesPath != "" {
		overrides, err := factor.LoadOverridesFile(cfg.Factors.OverridesPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Factors.OverridesPath).
				Msg("factor overrides unreadable, using built-in defaults")
		} else {
			registry.MergeOverrides(overrides.EmissionFactors)
			applyThresholds(&thresholds, overrides.Compliance.Thresholds)
			log.Info().Str("path", cfg.Factors.OverridesPath).Msg("factor overrides applied")
		}
	}

	fetcher := factor.NewHTTPFetcher()
	if len(cfg.Factors.Sources) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		factors := registry.Refresh(ctx, fetcher, factorStore, cfg.Factors.Sources)
		cancel()
		log.Info().Int("unit_factors", len(factors)).Msg("remote factor sources refreshed")
	}

	calculator := calc.NewCalculator(registry, thresholds, log)
	reconciler := sensor.NewReconciler(log)
	predictor := forecast.NewPredictor(log)

	emissionService := service.NewEmissionService(
		activityRepo,
		sensorRepo,
		companyRepo,
		calculator,
		reconciler,
		predictor,
		registry,
		fetcher,
		factorStore,
		cfg,
		log,
	)

	handler := httphandler.NewHandler(emissionService, log)
	router := httphandler.NewRouter(handler, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting emissions service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func applyThresholds(thresholds *calc.Thresholds, overrides map[string]float64) {
	if value, ok := overrides["scope_1"]; ok && value > 0 {
		thresholds.Scope1Warning = value
	}
	if value, ok := overrides["scope_2"]; ok && value > 0 {
		thresholds.Scope2Warning = value
	}
	if value, ok := overrides["scope_3"]; ok && value > 0 {
		thresholds.Scope3Warning = value
	}
}
