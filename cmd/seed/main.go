// Command seed bootstraps the catalog from careers.json and institutions.json.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"career-catalog-backend/config"
	"career-catalog-backend/internal/domain"
	"career-catalog-backend/internal/repository/postgres"
	"career-catalog-backend/internal/usecase"
	"career-catalog-backend/pkg/cache"
	"career-catalog-backend/pkg/database"
	"career-catalog-backend/pkg/logger"
	"career-catalog-backend/pkg/redis"
	"career-catalog-backend/pkg/validation"
)

func main() {
	dataDir := flag.String("data", "data", "directory holding careers.json and institutions.json")
	force := flag.Bool("force", false, "delete existing careers and institutions first")
	strict := flag.Bool("strict", false, "abort when a program references an unknown career title")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)

	input, err := loadInput(*dataDir)
	if err != nil {
		logger.Log.Error("Failed to read seed data", "dir", *dataDir, "error", err)
		os.Exit(1)
	}
	input.Force = *force
	if *strict {
		input.Mode = domain.ResolutionStrict
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl, database.PoolConfig{MaxConns: 4, MinConns: 1})
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := database.Migrate(ctx, dbPool); err != nil {
		logger.Log.Error("Failed to apply schema", "error", err)
		os.Exit(1)
	}

	// Cached analytics must not outlive the reseed.
	analyticsCache := cache.Cache(cache.Noop{})
	if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err == nil {
		analyticsCache = cache.NewRedisCache(redis.Client())
		defer redis.Close()
	}

	bootstrapUC := usecase.NewBootstrapUsecase(
		postgres.NewCareerRepository(dbPool),
		postgres.NewInstitutionRepository(dbPool),
		postgres.NewRelationshipRepository(dbPool),
		analyticsCache,
		validation.New(),
		domain.ResolutionMode(cfg.SeedResolutionMode),
	)

	// The CLI runs with operator rights.
	adminCtx := context.WithValue(ctx, domain.KeyUserRole, domain.RoleAdmin)
	report, err := bootstrapUC.Run(adminCtx, *input)
	if err != nil {
		logger.Log.Error("Bootstrap failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Log.Error("Failed to write report", "error", err)
		os.Exit(1)
	}
}

func loadInput(dir string) (*domain.BootstrapInput, error) {
	var input domain.BootstrapInput
	if err := readJSON(filepath.Join(dir, "careers.json"), &input.Careers); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, "institutions.json"), &input.Institutions); err != nil {
		return nil, err
	}
	return &input, nil
}

func readJSON(path string, dest interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
