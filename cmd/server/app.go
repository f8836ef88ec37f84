package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/actuallystonmai/fitness-plan-service/internal/cache"
	"github.com/actuallystonmai/fitness-plan-service/internal/config"
	"github.com/actuallystonmai/fitness-plan-service/internal/fallback"
	"github.com/actuallystonmai/fitness-plan-service/internal/logging"
	"github.com/actuallystonmai/fitness-plan-service/internal/metrics"
	"github.com/actuallystonmai/fitness-plan-service/internal/model"
	"github.com/actuallystonmai/fitness-plan-service/internal/repository"
	"github.com/actuallystonmai/fitness-plan-service/internal/service"
)

// app holds everything a command needs. repo and modelCache are nil
// when DATABASE_URL or REDIS_URL is unset.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	service    *service.Service
	repo       *repository.Repository
	modelCache *cache.Cache
	closers    []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	a := &app{cfg: cfg, log: log}

	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set, plan requests will fail")
	}

	client := model.NewClient(model.Options{
		BaseURL:          cfg.GeminiAPIBase,
		APIKey:           cfg.GeminiAPIKey,
		DiscoveryTimeout: cfg.DiscoveryTimeout,
		Generation: model.GenerationConfig{
			MaxOutputTokens: cfg.MaxOutputTokens,
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
		},
		Logger: log,
	})

	// ------------ Redis ---------------
	var resolver fallback.Resolver = client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		c := cache.NewCache(rdb, cfg.DiscoveryCacheTTL)
		if err := c.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, model listings will not be cached")
			rdb.Close()
		} else {
			log.Info().Msg("connected to Redis")
			a.modelCache = c
			a.closers = append(a.closers, func() { rdb.Close() })
			resolver = cache.NewModelResolver(client, c, log)
		}
	}

	// ------------ PostgreSQL ---------------
	recorders := []fallback.Recorder{metrics.NewRecorder()}
	var stats service.StatsStore
	if cfg.DatabaseURL != "" {
		pool, err := repository.Connect(ctx, cfg.DatabaseURL, cfg.DBPoolSize, log)
		if err != nil {
			a.close()
			return nil, err
		}
		log.Info().Msg("connected to PostgreSQL")
		a.closers = append(a.closers, pool.Close)
		a.repo = repository.New(pool, log)
		a.closers = append(a.closers, a.repo.Close)
		recorders = append(recorders, a.repo)
		stats = a.repo
	}

	orch := fallback.New(client, resolver, fallback.Policy{
		APIVersions:       cfg.APIVersions,
		PreferredModels:   cfg.PreferredModels,
		CurrentGeneration: cfg.CurrentGeneration,
		GlobalDeadline:    cfg.GlobalDeadline,
		AttemptTimeout:    cfg.AttemptTimeout,
	},
		fallback.WithRecorder(fallback.Recorders(recorders...)),
		fallback.WithLogger(log),
	)
	a.service = service.NewService(cfg.GeminiAPIKey, orch, stats, log)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
